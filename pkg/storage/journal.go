package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/serebryakov7/obd-logger/common"
)

const bucketKey = "sessions"

// ErrUnknownSession - сессии с таким ID нет в журнале
var ErrUnknownSession = errors.New("сессия не найдена")

// OpenDB открывает (или создаёт) bbolt-базу журнала и гарантирует наличие bucket’а.
func OpenDB(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketKey))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// BeginSession добавляет запись о новой сессии
func BeginSession(db *bolt.DB, entry common.SessionEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("пустой ID сессии")
	}
	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketKey))
		if b.Get([]byte(entry.ID)) != nil {
			return fmt.Errorf("сессия %s уже есть в журнале", entry.ID)
		}
		return put(b, entry)
	})
}

// RecordRow увеличивает счётчик строк и запоминает время последней строки
func RecordRow(db *bolt.DB, id string, timeMS int64) error {
	return update(db, id, func(e *common.SessionEntry) {
		e.Rows++
		e.LastRowMS = timeMS
	})
}

// FinishSession отмечает завершение сессии и его причину
func FinishSession(db *bolt.DB, id string, ended time.Time, reason string) error {
	return update(db, id, func(e *common.SessionEntry) {
		e.EndedAt = ended
		e.ExitReason = reason
	})
}

// GetSession возвращает запись по ID
func GetSession(db *bolt.DB, id string) (common.SessionEntry, error) {
	var entry common.SessionEntry
	err := db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketKey)).Get([]byte(id))
		if raw == nil {
			return fmt.Errorf("%w: %s", ErrUnknownSession, id)
		}
		return json.Unmarshal(raw, &entry)
	})
	return entry, err
}

// ListSessions возвращает все сессии по возрастанию времени старта
func ListSessions(db *bolt.DB) ([]common.SessionEntry, error) {
	var entries []common.SessionEntry
	err := db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketKey)).ForEach(func(_, v []byte) error {
			var e common.SessionEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartedAt.Before(entries[j].StartedAt)
	})
	return entries, nil
}

func update(db *bolt.DB, id string, fn func(e *common.SessionEntry)) error {
	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketKey))
		raw := b.Get([]byte(id))
		if raw == nil {
			return fmt.Errorf("%w: %s", ErrUnknownSession, id)
		}
		var e common.SessionEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		fn(&e)
		return put(b, e)
	})
}

func put(b *bolt.Bucket, e common.SessionEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.Put([]byte(e.ID), raw)
}
