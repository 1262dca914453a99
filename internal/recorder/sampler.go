package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/serebryakov7/obd-logger/internal/obd"
)

// ErrNotConnected - транспорт не в состоянии CarConnected там, где соединение обязательно
var ErrNotConnected = errors.New("нет соединения с автомобилем")

// DefaultInterval - период опроса по умолчанию
const DefaultInterval = 250 * time.Millisecond

// State - состояние цикла опроса
type State string

const (
	StateStarting     State = "STARTING"
	StateConnected    State = "CONNECTED"
	StateSampling     State = "SAMPLING"
	StateDisconnected State = "DISCONNECTED"
	StateFatal        State = "FATAL"
)

// Metrics получает события цикла опроса
type Metrics interface {
	ObserveTick(d time.Duration)
	IncRows()
	IncNoData(column string)
	IncDisconnected()
}

// Observer получает каждую записанную строку. Ошибки наблюдателей не прерывают запись.
type Observer interface {
	Observe(ctx context.Context, row Row) error
}

// ObserverFunc адаптирует функцию к Observer
type ObserverFunc func(ctx context.Context, row Row) error

func (f ObserverFunc) Observe(ctx context.Context, row Row) error {
	return f(ctx, row)
}

// SamplerOptions - параметры цикла опроса
type SamplerOptions struct {
	Interval  time.Duration
	Strict    bool      // ошибка соединения завершает цикл
	Console   io.Writer // зеркало строк, по умолчанию os.Stdout
	Clock     clock.Clock
	Metrics   Metrics
	Observers []Observer
}

// Sampler периодически опрашивает соединение и пишет строки в сессию.
// Всё выполняется в одной горутине: ожидание, запросы, запись.
type Sampler struct {
	conn    obd.Connection
	columns []Column
	session *Session
	opts    SamplerOptions

	mutex sync.Mutex
	state State
}

// NewSampler создаёт цикл опроса. Соединение передаётся явно.
func NewSampler(conn obd.Connection, session *Session, opts SamplerOptions) *Sampler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	return &Sampler{
		conn:    conn,
		columns: session.Columns(),
		session: session,
		opts:    opts,
		state:   StateStarting,
	}
}

// State возвращает текущее состояние цикла
func (s *Sampler) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

func (s *Sampler) setState(st State) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.state = st
}

// Run выполняет цикл до отмены ctx (возвращает nil) или до фатальной ошибки:
// потеря соединения в строгом режиме или ошибка записи файла.
// Первая строка пишется через один период после старта.
func (s *Sampler) Run(ctx context.Context) error {
	connected, err := s.checkConnection()
	if err != nil {
		return err
	}
	if connected {
		s.setState(StateConnected)
	}
	log.Printf("Начало записи в %s с интервалом %v (строгий режим: %t)", s.session.Path(), s.opts.Interval, s.opts.Strict)

	for {
		timer := s.opts.Clock.Timer(s.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("Запись остановлена, строк записано: %d", s.session.Rows())
			return nil
		case <-timer.C:
		}

		if err := s.Tick(ctx); err != nil {
			return err
		}
	}
}

// Tick выполняет одну итерацию без ожидания: проверка соединения, метка времени,
// запросы по всем колонкам, запись строки в файл и на консоль.
func (s *Sampler) Tick(ctx context.Context) error {
	start := s.opts.Clock.Now()
	defer func() {
		s.opts.Metrics.ObserveTick(s.opts.Clock.Since(start))
	}()

	connected, err := s.checkConnection()
	if err != nil {
		return err
	}
	if connected {
		s.setState(StateSampling)
	}

	rec := Record{
		TimeMS: s.opts.Clock.Now().UnixMilli(),
		Values: make([]obd.Value, 0, len(s.columns)-1),
	}
	for _, col := range s.columns[1:] {
		v := obd.NoData
		if !col.IsSynthetic() && connected {
			v = s.conn.Query(ctx, col.Command).Value
		}
		if v.IsNull() {
			s.opts.Metrics.IncNoData(col.Name)
		}
		rec.Values = append(rec.Values, v)
	}

	if ctx.Err() != nil {
		// прерванная итерация не пишется
		return nil
	}

	line, err := s.session.WriteRecord(rec)
	if err != nil {
		s.setState(StateFatal)
		return fmt.Errorf("ошибка записи строки: %w", err)
	}
	s.opts.Metrics.IncRows()
	fmt.Fprintln(s.opts.Console, line)

	row := Row{
		TimeMS: rec.TimeMS,
		Header: Header(s.columns),
		Fields: rec.Fields(),
		Line:   line,
	}
	for _, o := range s.opts.Observers {
		if err := o.Observe(ctx, row); err != nil {
			log.Printf("Ошибка наблюдателя: %v", err)
		}
	}
	return nil
}

// checkConnection проверяет статус транспорта. В строгом режиме потеря соединения
// фатальна, в мягком - только отмечается состоянием DISCONNECTED.
func (s *Sampler) checkConnection() (bool, error) {
	status := s.conn.Status()
	if status == obd.CarConnected {
		return true, nil
	}

	if s.opts.Strict {
		s.setState(StateFatal)
		return false, fmt.Errorf("%w: статус %q", ErrNotConnected, status)
	}

	s.opts.Metrics.IncDisconnected()
	s.setState(StateDisconnected)
	log.Printf("Нет соединения с автомобилем (статус %q), поля строки будут пустыми", status)
	return false, nil
}

type nopMetrics struct{}

func (nopMetrics) ObserveTick(time.Duration) {}
func (nopMetrics) IncRows()                  {}
func (nopMetrics) IncNoData(string)          {}
func (nopMetrics) IncDisconnected()          {}
