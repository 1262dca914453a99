package recorder

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// SessionOptions - настройки файла записи
type SessionOptions struct {
	// Fsync после каждой строки, иначе данные остаются в кэше ОС
	Fsync bool
}

// Session владеет файлом записи на всё время работы цикла опроса
type Session struct {
	file    *os.File
	columns []Column
	opts    SessionOptions
	rows    atomic.Int64
}

// CreateSession создаёт новый файл, блокирует его и пишет заголовок.
// Существующий файл не перезаписывается.
func CreateSession(path string, columns []Column, opts SessionOptions) (*Session, error) {
	if len(columns) == 0 || columns[0].Name != TimeColumnName {
		return nil, fmt.Errorf("первой колонкой должна быть %s", TimeColumnName)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла записи: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("ошибка блокировки файла %s: %w", path, err)
	}

	s := &Session{file: f, columns: columns, opts: opts}
	if _, err := s.writeLine(Header(columns)); err != nil {
		s.Close()
		return nil, fmt.Errorf("ошибка записи заголовка: %w", err)
	}
	log.Printf("Открыт файл записи %s (%d колонок)", path, len(columns))
	return s, nil
}

// Columns возвращает колонки сессии
func (s *Session) Columns() []Column {
	return s.columns
}

// Path возвращает путь к файлу записи
func (s *Session) Path() string {
	return s.file.Name()
}

// Rows возвращает число записанных строк данных
func (s *Session) Rows() int64 {
	return s.rows.Load()
}

// WriteRecord пишет одну строку и возвращает её текст без перевода строки
func (s *Session) WriteRecord(r Record) (string, error) {
	fields := r.Fields()
	if len(fields) != len(s.columns) {
		return "", fmt.Errorf("число полей %d не совпадает с числом колонок %d", len(fields), len(s.columns))
	}
	line, err := s.writeLine(fields)
	if err != nil {
		return "", err
	}
	s.rows.Add(1)
	return line, nil
}

// writeLine пишет строку одним вызовом Write, чтобы прерывание не оставило половину строки
func (s *Session) writeLine(fields []string) (string, error) {
	line, err := encodeLine(fields)
	if err != nil {
		return "", err
	}
	if _, err := s.file.WriteString(line); err != nil {
		return "", fmt.Errorf("ошибка записи в %s: %w", s.file.Name(), err)
	}
	if s.opts.Fsync {
		if err := s.file.Sync(); err != nil {
			return "", fmt.Errorf("ошибка синхронизации %s: %w", s.file.Name(), err)
		}
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// Close снимает блокировку и закрывает файл
func (s *Session) Close() error {
	if err := s.file.Sync(); err != nil {
		log.Printf("Ошибка синхронизации %s: %v", s.file.Name(), err)
	}
	if err := unlockFile(s.file); err != nil {
		log.Printf("Ошибка снятия блокировки %s: %v", s.file.Name(), err)
	}
	return s.file.Close()
}

func encodeLine(fields []string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(fields); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
