package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"text/tabwriter"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/serebryakov7/obd-logger/common"
	"github.com/serebryakov7/obd-logger/internal/recorder"
	"github.com/serebryakov7/obd-logger/pkg/storage"
)

// journalObserver отмечает каждую записанную строку в журнале сессий
type journalObserver struct {
	db *bolt.DB
	id string
}

func openJournal(path, id, file, tag, profile string, started time.Time) (*journalObserver, error) {
	db, err := storage.OpenDB(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия журнала %s: %w", path, err)
	}

	err = storage.BeginSession(db, common.SessionEntry{
		ID:        id,
		File:      file,
		Tag:       tag,
		Profile:   profile,
		StartedAt: started,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("Сессия %s добавлена в журнал %s", id, path)
	return &journalObserver{db: db, id: id}, nil
}

func (j *journalObserver) Observe(_ context.Context, row recorder.Row) error {
	return storage.RecordRow(j.db, j.id, row.TimeMS)
}

// finish записывает причину завершения: nil означает остановку по сигналу
func (j *journalObserver) finish(runErr error) {
	reason := "interrupted"
	if runErr != nil {
		reason = runErr.Error()
	}
	if err := storage.FinishSession(j.db, j.id, time.Now(), reason); err != nil {
		log.Printf("Ошибка записи в журнал сессий: %v", err)
	}
}

func (j *journalObserver) Close() error {
	return j.db.Close()
}

// printSessions выводит журнал сессий таблицей
func printSessions(w io.Writer, path string) error {
	if path == "" {
		return fmt.Errorf("журнал сессий не задан")
	}
	db, err := storage.OpenDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := storage.ListSessions(db)
	if err != nil {
		return err
	}
	return writeSessions(w, entries)
}

func writeSessions(w io.Writer, entries []common.SessionEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tFILE\tTAG\tPROFILE\tROWS\tDURATION\tEXIT")
	for _, e := range entries {
		duration := "-"
		exit := "running"
		if e.Finished() {
			duration = e.EndedAt.Sub(e.StartedAt).Round(time.Second).String()
			exit = e.ExitReason
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.StartedAt.Format(time.DateTime), e.File, e.Tag, e.Profile, e.Rows, duration, exit)
	}
	return tw.Flush()
}
