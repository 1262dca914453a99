package recorder

import (
	"strconv"

	"github.com/serebryakov7/obd-logger/internal/obd"
)

// Record - одна строка выборки: время и значения команд в порядке колонок
type Record struct {
	TimeMS int64
	Values []obd.Value // по одному на каждую колонку после TIME
}

// Fields возвращает поля строки CSV, TIME первым
func (r Record) Fields() []string {
	fields := make([]string, 0, len(r.Values)+1)
	fields = append(fields, strconv.FormatInt(r.TimeMS, 10))
	for _, v := range r.Values {
		fields = append(fields, v.String())
	}
	return fields
}

// Row передаётся наблюдателям после записи строки в файл
type Row struct {
	TimeMS int64
	Header []string
	Fields []string
	Line   string
}
