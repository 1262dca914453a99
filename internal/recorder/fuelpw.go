package recorder

import "github.com/serebryakov7/obd-logger/internal/obd"

// Коэффициенты длительности впрыска для старшего и младшего байта
const (
	fuelPWHighScale = 2.734
	fuelPWLowScale  = 0.0106
)

// FuelPulseWidth - пользовательская команда длительности импульса форсунки.
// В набор поддерживаемых команд соединения её добавляет BuildColumns.
var FuelPulseWidth = obd.NewCommand("FUELPW1", "Fuel injector pulse width", "1141", 2, decodeFuelPulseWidth)

// decodeFuelPulseWidth: B0*2.734 + B1*0.0106 после двух байт эха.
// Любая другая длина - ErrDecodeMismatch и NoData.
func decodeFuelPulseWidth(data []byte) (obd.Value, error) {
	d, err := obd.Payload(data, 2)
	if err != nil {
		return obd.NoData, err
	}
	v := float64(d[0])*fuelPWHighScale + float64(d[1])*fuelPWLowScale
	return obd.Number(v, obd.UnitRPM), nil
}
