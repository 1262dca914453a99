package recorder

import (
	"fmt"
	"time"
)

// Метки типа топлива в имени файла
const (
	DefaultPrimaryTag   = "BEN"
	DefaultAlternateTag = "LPG"
)

const fileTimeLayout = "06_01_02__15_04_05"

// FileName возвращает имя файла записи: recording_YY_MM_DD__HH_MM_SS_<TAG>.csv
func FileName(start time.Time, tag string) string {
	return fmt.Sprintf("recording_%s_%s.csv", start.Format(fileTimeLayout), tag)
}

// FuelTag выбирает метку топлива по флагу газа
func FuelTag(lpg bool, primary, alternate string) string {
	if lpg {
		return alternate
	}
	return primary
}
