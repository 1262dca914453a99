package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/serebryakov7/obd-logger/internal/obd"
)

func TestCheckStartup(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		strict  bool
		status  obd.Status
		proceed bool
		code    int
	}{
		{"strict connected", context.Background(), true, obd.CarConnected, true, 0},
		{"strict without car", context.Background(), true, obd.OBDConnected, false, 1},
		{"lenient without car", context.Background(), false, obd.NotConnected, true, 0},
		{"signal during handshake strict", canceled, true, obd.NotConnected, false, 0},
		{"signal during handshake lenient", canceled, false, obd.ELMConnected, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proceed, code := checkStartup(tt.ctx, tt.strict, tt.status)
			assert.Equal(t, tt.proceed, proceed)
			assert.Equal(t, tt.code, code)
		})
	}
}
