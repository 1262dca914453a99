package recorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serebryakov7/obd-logger/internal/obd"
)

func TestBuildColumnsFuelPW(t *testing.T) {
	conn := newFakeConn()
	p, err := LookupProfile(ProfileFuelPW)
	require.NoError(t, err)
	assert.True(t, p.Strict)

	columns := BuildColumns(p, conn)
	assert.Equal(t, []string{
		"TIME", "SPEED", "RPM", "FUEL_STATUS", "O2_SENSORS", "INTAKE_PRESSURE",
		"FUEL_INJECT_TIMING", "LONG_FUEL_TRIM_1", "SHORT_FUEL_TRIM_1", "FUELPW1",
	}, Header(columns))
	assert.True(t, columns[0].IsSynthetic())
	assert.True(t, conn.Supports(FuelPulseWidth))
}

func TestBuildColumnsO2Trim(t *testing.T) {
	conn := newFakeConn()
	p, err := LookupProfile(ProfileO2Trim)
	require.NoError(t, err)
	assert.False(t, p.Strict)

	columns := BuildColumns(p, conn)
	header := Header(columns)
	assert.Equal(t, "TIME", header[0])
	assert.Contains(t, header, "LONG_O2_TRIM_B1")
	assert.Contains(t, header, "SHORT_O2_TRIM_B1")
	assert.NotContains(t, header, "FUELPW1")
	assert.False(t, conn.Supports(FuelPulseWidth))
}

func TestLookupProfileUnknown(t *testing.T) {
	_, err := LookupProfile("diesel")
	assert.Error(t, err)
	assert.Equal(t, []string{ProfileFuelPW, ProfileO2Trim}, ProfileNames())
}

func TestFuelPulseWidthDecoder(t *testing.T) {
	v, err := FuelPulseWidth.Decode([]byte{0x51, 0x41, 0x0A, 0x14})
	require.NoError(t, err)
	assert.Equal(t, obd.UnitRPM, v.Unit)
	assert.InDelta(t, 27.55, v.Magnitude, 0.01)
	assert.InDelta(t, 10*2.734+20*0.0106, v.Magnitude, 1e-9)
}

func TestFuelPulseWidthDecoderMismatch(t *testing.T) {
	for _, data := range [][]byte{
		{0x51, 0x41},
		{0x51, 0x41, 0x0A},
		{0x51, 0x41, 0x0A, 0x14, 0x00},
	} {
		v, err := FuelPulseWidth.Decode(data)
		assert.ErrorIs(t, err, obd.ErrDecodeMismatch)
		assert.True(t, v.IsNull())
		assert.Equal(t, "", v.String())
	}
}

func TestFileName(t *testing.T) {
	start := time.Date(2024, time.March, 7, 9, 5, 3, 0, time.Local)

	assert.Equal(t, "recording_24_03_07__09_05_03_BEN.csv",
		FileName(start, FuelTag(false, DefaultPrimaryTag, DefaultAlternateTag)))
	assert.Equal(t, "recording_24_03_07__09_05_03_LPG.csv",
		FileName(start, FuelTag(true, DefaultPrimaryTag, DefaultAlternateTag)))
}
