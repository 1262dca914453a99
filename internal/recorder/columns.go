package recorder

import "github.com/serebryakov7/obd-logger/internal/obd"

// TimeColumnName - имя синтетической колонки времени
const TimeColumnName = "TIME"

// Column - колонка CSV: либо запрос к ECU, либо вычисляемое значение
type Column struct {
	Name    string
	Command *obd.Command // nil для синтетических колонок
}

// TimeColumn всегда идёт первой
var TimeColumn = Synthetic(TimeColumnName)

// Synthetic создаёт вычисляемую колонку
func Synthetic(name string) Column {
	return Column{Name: name}
}

// Builtin создаёт колонку для команды, имя колонки совпадает с именем команды
func Builtin(cmd *obd.Command) Column {
	return Column{Name: cmd.Name, Command: cmd}
}

// IsSynthetic сообщает, что колонка не требует запроса
func (c Column) IsSynthetic() bool {
	return c.Command == nil
}

// Header возвращает имена колонок в порядке вывода
func Header(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}
