package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/serebryakov7/obd-logger/internal/obd"
)

// fakeConn отвечает заранее заданными сырыми сообщениями и декодирует их командой
type fakeConn struct {
	mu        sync.Mutex
	status    obd.Status
	messages  map[string][]byte
	supported map[string]bool
	queries   []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		status: obd.CarConnected,
		messages: map[string][]byte{
			obd.SPEED.Request:              {0x41, 0x0D, 0x32},
			obd.RPM.Request:                {0x41, 0x0C, 0x1A, 0xF8},
			obd.FUEL_STATUS.Request:        {0x41, 0x03, 0x02, 0x00},
			obd.O2_SENSORS.Request:         {0x41, 0x13, 0x03},
			obd.INTAKE_PRESSURE.Request:    {0x41, 0x0B, 0x64},
			obd.FUEL_INJECT_TIMING.Request: {0x41, 0x5D, 0x69, 0x00},
			obd.LONG_FUEL_TRIM_1.Request:   {0x41, 0x07, 0x90},
			obd.SHORT_FUEL_TRIM_1.Request:  {0x41, 0x06, 0x80},
			FuelPulseWidth.Request:         {0x51, 0x41, 0x0A, 0x14},
		},
		supported: map[string]bool{},
	}
}

func (c *fakeConn) setStatus(s obd.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
}

func (c *fakeConn) Status() obd.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *fakeConn) Query(ctx context.Context, cmd *obd.Command) obd.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, cmd.Name)

	msg, ok := c.messages[cmd.Request]
	if !ok {
		return obd.NullResponse(cmd, nil)
	}
	v, err := cmd.Decode(msg)
	if err != nil {
		return obd.NullResponse(cmd, err)
	}
	return obd.Response{Command: cmd, Value: v, Time: time.Now()}
}

func (c *fakeConn) AddSupported(cmd *obd.Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supported[cmd.Request] = true
}

func (c *fakeConn) Supports(cmd *obd.Command) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.supported[cmd.Request]
}

func (c *fakeConn) Close() error {
	return nil
}

func (c *fakeConn) queryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}
