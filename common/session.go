package common

import "time"

// SessionEntry - запись журнала о запуске логгера
type SessionEntry struct {
	ID      string `json:"id"`
	File    string `json:"file"`
	Tag     string `json:"tag"`
	Profile string `json:"profile"`

	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`

	// Rows и LastRowMS обновляются после каждой записанной строки
	Rows       int64  `json:"rows"`
	LastRowMS  int64  `json:"last_row_ms,omitempty"`
	ExitReason string `json:"exit_reason,omitempty"`
}

// Finished сообщает, что сессия завершилась штатно или с ошибкой
func (e SessionEntry) Finished() bool {
	return !e.EndedAt.IsZero()
}
