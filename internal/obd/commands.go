package obd

import "fmt"

// Стандартные команды режима 01
var (
	PIDS_A             = NewCommand("PIDS_A", "Supported PIDs [01-20]", "0100", 4, decodePIDBitmap)
	FUEL_STATUS        = NewCommand("FUEL_STATUS", "Fuel System Status", "0103", 2, decodeFuelStatus)
	SHORT_FUEL_TRIM_1  = NewCommand("SHORT_FUEL_TRIM_1", "Short Term Fuel Trim - Bank 1", "0106", 1, percentCentered(1))
	LONG_FUEL_TRIM_1   = NewCommand("LONG_FUEL_TRIM_1", "Long Term Fuel Trim - Bank 1", "0107", 1, percentCentered(1))
	INTAKE_PRESSURE    = NewCommand("INTAKE_PRESSURE", "Intake Manifold Pressure", "010B", 1, uas(1, 1, 0, UnitKilopascal))
	RPM                = NewCommand("RPM", "Engine RPM", "010C", 2, uas(2, 0.25, 0, UnitRPM))
	SPEED              = NewCommand("SPEED", "Vehicle Speed", "010D", 1, uas(1, 1, 0, UnitKPH))
	O2_SENSORS         = NewCommand("O2_SENSORS", "O2 Sensors Present", "0113", 1, decodeO2Sensors)
	PIDS_B             = NewCommand("PIDS_B", "Supported PIDs [21-40]", "0120", 4, decodePIDBitmap)
	PIDS_C             = NewCommand("PIDS_C", "Supported PIDs [41-60]", "0140", 4, decodePIDBitmap)
	SHORT_O2_TRIM_B1   = NewCommand("SHORT_O2_TRIM_B1", "Short Term Secondary O2 trim - Bank 1", "0155", 2, percentCentered(2))
	LONG_O2_TRIM_B1    = NewCommand("LONG_O2_TRIM_B1", "Long Term Secondary O2 trim - Bank 1", "0156", 2, percentCentered(2))
	FUEL_INJECT_TIMING = NewCommand("FUEL_INJECT_TIMING", "Fuel Injection Timing", "015D", 2, uas(2, 1.0/128, -210, UnitDegree))
)

// Catalogue - все стандартные команды
var Catalogue = []*Command{
	PIDS_A,
	FUEL_STATUS,
	SHORT_FUEL_TRIM_1,
	LONG_FUEL_TRIM_1,
	INTAKE_PRESSURE,
	RPM,
	SPEED,
	O2_SENSORS,
	PIDS_B,
	PIDS_C,
	SHORT_O2_TRIM_B1,
	LONG_O2_TRIM_B1,
	FUEL_INJECT_TIMING,
}

// PIDBitmaps - команды для определения поддерживаемых PID, по порядку
var PIDBitmaps = []*Command{PIDS_A, PIDS_B, PIDS_C}

// Lookup ищет стандартную команду по имени
func Lookup(name string) (*Command, error) {
	for _, c := range Catalogue {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("неизвестная команда: %s", name)
}
