package recorder

import (
	"fmt"
	"log"
	"sort"

	"github.com/serebryakov7/obd-logger/internal/obd"
)

// Profile - фиксированный набор опрашиваемых сигналов
type Profile struct {
	Name     string
	Commands []*obd.Command // в порядке колонок, включая пользовательские
	Custom   []*obd.Command // команды, которых нет в каталоге транспорта
	Strict   bool           // прерывать запись при потере соединения
}

// Имена встроенных профилей
const (
	ProfileFuelPW  = "fuelpw"
	ProfileO2Trim  = "o2trim"
	DefaultProfile = ProfileFuelPW
)

var profiles = map[string]Profile{
	ProfileFuelPW: {
		Name: ProfileFuelPW,
		Commands: []*obd.Command{
			obd.SPEED,
			obd.RPM,
			obd.FUEL_STATUS,
			obd.O2_SENSORS,
			obd.INTAKE_PRESSURE,
			obd.FUEL_INJECT_TIMING,
			obd.LONG_FUEL_TRIM_1,
			obd.SHORT_FUEL_TRIM_1,
			FuelPulseWidth,
		},
		Custom: []*obd.Command{FuelPulseWidth},
		Strict: true,
	},
	ProfileO2Trim: {
		Name: ProfileO2Trim,
		Commands: []*obd.Command{
			obd.SPEED,
			obd.RPM,
			obd.FUEL_STATUS,
			obd.O2_SENSORS,
			obd.INTAKE_PRESSURE,
			obd.LONG_FUEL_TRIM_1,
			obd.SHORT_FUEL_TRIM_1,
			obd.LONG_O2_TRIM_B1,
			obd.SHORT_O2_TRIM_B1,
		},
		Strict: false,
	},
}

// LookupProfile возвращает встроенный профиль по имени
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("неизвестный профиль %q, доступны: %v", name, ProfileNames())
	}
	return p, nil
}

// ProfileNames возвращает имена встроенных профилей
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildColumns формирует колонки профиля (TIME первой) и регистрирует
// пользовательские команды в соединении.
func BuildColumns(p Profile, conn obd.Connection) []Column {
	for _, cmd := range p.Custom {
		conn.AddSupported(cmd)
		log.Printf("Добавлена пользовательская команда %s (%s)", cmd.Name, cmd.Request)
	}

	columns := make([]Column, 0, len(p.Commands)+1)
	columns = append(columns, TimeColumn)
	for _, cmd := range p.Commands {
		columns = append(columns, Builtin(cmd))
	}
	return columns
}
