package obd

import (
	"context"
	"time"
)

// Status описывает состояние соединения с адаптером и автомобилем
type Status string

const (
	// NotConnected - порт закрыт или адаптер не отвечает
	NotConnected Status = "Not Connected"
	// ELMConnected - адаптер ответил, протокол ещё не выбран
	ELMConnected Status = "ELM Connected"
	// OBDConnected - протокол выбран, ECU не ответил
	OBDConnected Status = "OBD Connected"
	// CarConnected - ECU отвечает на запросы
	CarConnected Status = "Car Connected"
)

// Connection определяет границу транспорта: подключение, статус и запросы к ECU.
// Реализации сами отвечают за протокол и декодирование стандартных команд.
type Connection interface {
	// Status возвращает текущее состояние соединения
	Status() Status
	// Query выполняет один синхронный запрос. Ошибки запроса не возвращаются,
	// вместо этого Response содержит NoData.
	Query(ctx context.Context, cmd *Command) Response
	// AddSupported добавляет команду в набор поддерживаемых
	AddSupported(cmd *Command)
	// Supports сообщает, поддерживается ли команда
	Supports(cmd *Command) bool
	// Close закрывает соединение
	Close() error
}

// Response - результат одного запроса
type Response struct {
	Command *Command
	Value   Value
	Time    time.Time
	Err     error // причина NoData, если есть
}

// IsNull сообщает, что ответ не содержит данных
func (r Response) IsNull() bool {
	return r.Value.IsNull()
}

// NullResponse формирует пустой ответ с причиной
func NullResponse(cmd *Command, err error) Response {
	return Response{Command: cmd, Value: NoData, Time: time.Now(), Err: err}
}
