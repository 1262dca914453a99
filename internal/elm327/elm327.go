package elm327

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/serebryakov7/obd-logger/internal/obd"
)

// Настройки по умолчанию
const (
	DefaultBaud         = 38400
	DefaultReadTimeout  = 100 * time.Millisecond
	DefaultQueryTimeout = 5 * time.Second
	DefaultProtocol     = "0" // автоопределение
)

const prompt = '>'

var (
	// ErrAdapter - адаптер ответил сообщением об ошибке
	ErrAdapter = errors.New("ошибка адаптера ELM327")
	// ErrNotConnected - ECU недоступен
	ErrNotConnected = errors.New("нет соединения с автомобилем")
	// ErrUnsupported - команда не входит в набор поддерживаемых
	ErrUnsupported = errors.New("команда не поддерживается")
	// ErrTimeout - адаптер не выдал приглашение вовремя
	ErrTimeout = errors.New("таймаут ответа адаптера")
)

// Ответы адаптера, означающие отсутствие данных
var adapterErrors = []string{
	"NO DATA",
	"UNABLE TO CONNECT",
	"STOPPED",
	"ERROR", // CAN ERROR, BUS ERROR, BUS INIT: ...ERROR
	"?",
}

// Config содержит настройки подключения к адаптеру
type Config struct {
	Port         string
	Baud         int
	ReadTimeout  time.Duration
	QueryTimeout time.Duration
	Protocol     string
}

func (c *Config) applyDefaults() {
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
	if c.Protocol == "" {
		c.Protocol = DefaultProtocol
	}
}

// Conn реализует obd.Connection поверх адаптера ELM327
type Conn struct {
	port      io.ReadWriteCloser
	cfg       Config
	mutex     sync.Mutex
	status    obd.Status
	supported map[string]*obd.Command

	// ответ на прерванную команду может прийти позже, перед следующей его нужно вычитать
	stale bool
}

var _ obd.Connection = (*Conn)(nil)

// Open открывает последовательный порт и выполняет рукопожатие с адаптером.
// Отсутствие автомобиля не считается ошибкой: это видно по Status().
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	cfg.applyDefaults()

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия порта %s: %w", cfg.Port, err)
	}

	c := New(port, cfg)
	c.Connect(ctx)
	return c, nil
}

// New оборачивает уже открытый порт. Рукопожатие не выполняется.
func New(port io.ReadWriteCloser, cfg Config) *Conn {
	cfg.applyDefaults()

	c := &Conn{
		port:      port,
		cfg:       cfg,
		status:    obd.NotConnected,
		supported: make(map[string]*obd.Command),
	}
	for _, cmd := range obd.PIDBitmaps {
		c.supported[cmd.Request] = cmd
	}
	return c
}

// Connect выполняет инициализацию адаптера, выбор протокола и определение
// поддерживаемых PID. Итог отражается в Status().
func (c *Conn) Connect(ctx context.Context) {
	if _, err := c.send(ctx, "ATZ"); err != nil {
		log.Printf("ELM327: адаптер не отвечает на ATZ: %v", err)
		return
	}
	for _, at := range []string{"ATE0", "ATL0", "ATS0", "ATH0"} {
		if err := c.expectOK(ctx, at); err != nil {
			log.Printf("ELM327: ошибка настройки адаптера: %v", err)
			return
		}
	}
	c.setStatus(obd.ELMConnected)

	if err := c.expectOK(ctx, "ATSP"+c.cfg.Protocol); err != nil {
		log.Printf("ELM327: ошибка выбора протокола: %v", err)
		return
	}
	c.setStatus(obd.OBDConnected)

	lines, err := c.send(ctx, obd.PIDS_A.Request)
	if err != nil {
		log.Printf("ELM327: ECU не ответил на 0100: %v", err)
		return
	}
	if findMessage(parseMessages(lines), obd.PIDS_A) == nil {
		log.Printf("ELM327: нет корректного ответа на 0100: %q", lines)
		return
	}
	c.setStatus(obd.CarConnected)
	log.Printf("ELM327: подключено к автомобилю (порт %s, протокол %s)", c.cfg.Port, c.cfg.Protocol)

	c.discover(ctx)
}

// discover запрашивает битовые карты PID и помечает команды каталога как поддерживаемые
func (c *Conn) discover(ctx context.Context) {
	for _, bitmap := range obd.PIDBitmaps {
		lines, err := c.send(ctx, bitmap.Request)
		if err != nil {
			log.Printf("ELM327: ошибка запроса %s: %v", bitmap.Name, err)
			return
		}
		msg := findMessage(parseMessages(lines), bitmap)
		payload, err := obd.Payload(msg, bitmap.Bytes)
		if err != nil {
			return
		}

		pids := obd.SupportedPIDs(bitmap.PID(), payload)
		next := false
		for _, pid := range pids {
			if pid == bitmap.PID()+0x20 {
				next = true
			}
			for _, cmd := range obd.Catalogue {
				if cmd.Mode() == 0x01 && cmd.PID() == pid {
					c.AddSupported(cmd)
				}
			}
		}
		if !next {
			return
		}
	}
}

// Status возвращает текущее состояние соединения
func (c *Conn) Status() obd.Status {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.status
}

func (c *Conn) setStatus(s obd.Status) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.status = s
}

// AddSupported добавляет команду в набор поддерживаемых
func (c *Conn) AddSupported(cmd *obd.Command) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.supported[cmd.Request] = cmd
}

// Supports сообщает, поддерживается ли команда
func (c *Conn) Supports(cmd *obd.Command) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, ok := c.supported[cmd.Request]
	return ok
}

// Query выполняет запрос и декодирует ответ. Любая ошибка превращается в NoData.
func (c *Conn) Query(ctx context.Context, cmd *obd.Command) obd.Response {
	if !c.Supports(cmd) {
		log.Printf("ELM327: команда %s не поддерживается", cmd.Name)
		return obd.NullResponse(cmd, fmt.Errorf("%w: %s", ErrUnsupported, cmd.Name))
	}
	if c.Status() != obd.CarConnected {
		return obd.NullResponse(cmd, ErrNotConnected)
	}

	lines, err := c.send(ctx, cmd.Request)
	if err != nil {
		log.Printf("ELM327: ошибка запроса %s: %v", cmd.Name, err)
		return obd.NullResponse(cmd, err)
	}

	msg := findMessage(parseMessages(lines), cmd)
	if msg == nil {
		log.Printf("ELM327: нет ответа на %s: %q", cmd.Name, lines)
		return obd.NullResponse(cmd, fmt.Errorf("%w: нет сообщения для %s", ErrAdapter, cmd.Name))
	}

	v, err := cmd.Decode(msg)
	if err != nil {
		log.Printf("ELM327: ошибка декодирования %s (% X): %v", cmd.Name, msg, err)
		return obd.NullResponse(cmd, err)
	}
	return obd.Response{Command: cmd, Value: v, Time: time.Now()}
}

// Close закрывает порт
func (c *Conn) Close() error {
	c.setStatus(obd.NotConnected)
	return c.port.Close()
}

func (c *Conn) expectOK(ctx context.Context, cmd string) error {
	lines, err := c.send(ctx, cmd)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if strings.Contains(l, "OK") {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %q", ErrAdapter, cmd, lines)
}

// send отправляет команду и читает ответ до приглашения '>'.
// Ошибки ввода-вывода сбрасывают статус в NotConnected.
func (c *Conn) send(ctx context.Context, cmd string) ([]string, error) {
	if c.stale {
		c.stale = false
		c.drain(ctx)
	}

	if _, err := c.port.Write([]byte(cmd + "\r")); err != nil {
		c.setStatus(obd.NotConnected)
		return nil, fmt.Errorf("ошибка записи в порт: %w", err)
	}

	deadline := time.Now().Add(c.cfg.QueryTimeout)
	buf := make([]byte, 128)
	var raw []byte

	for bytes.IndexByte(raw, prompt) < 0 {
		select {
		case <-ctx.Done():
			c.stale = true
			return nil, ctx.Err()
		default:
		}
		if time.Now().After(deadline) {
			c.stale = true
			return nil, fmt.Errorf("%w: %s", ErrTimeout, cmd)
		}

		n, err := c.port.Read(buf)
		if err != nil && err != io.EOF {
			c.setStatus(obd.NotConnected)
			return nil, fmt.Errorf("ошибка чтения порта: %w", err)
		}
		raw = append(raw, buf[:n]...)
	}

	raw = raw[:bytes.IndexByte(raw, prompt)]
	lines := splitLines(raw, cmd)
	for _, l := range lines {
		for _, e := range adapterErrors {
			if strings.Contains(l, e) {
				return nil, fmt.Errorf("%w: %s: %s", ErrAdapter, cmd, l)
			}
		}
	}
	return lines, nil
}

// drain отбрасывает опоздавший ответ до приглашения '>', но не дольше QueryTimeout
func (c *Conn) drain(ctx context.Context) {
	deadline := time.Now().Add(c.cfg.QueryTimeout)
	buf := make([]byte, 128)
	var dropped int

	for ctx.Err() == nil && time.Now().Before(deadline) {
		n, err := c.port.Read(buf)
		if err != nil && err != io.EOF {
			return
		}
		dropped += n
		if bytes.IndexByte(buf[:n], prompt) >= 0 {
			log.Printf("ELM327: отброшен опоздавший ответ (%d байт)", dropped)
			return
		}
	}
	log.Printf("ELM327: опоздавший ответ не получен, отброшено %d байт", dropped)
}

func splitLines(raw []byte, cmd string) []string {
	fields := strings.FieldsFunc(string(raw), func(r rune) bool {
		return r == '\r' || r == '\n'
	})

	var lines []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || f == cmd || strings.HasPrefix(f, "SEARCHING") {
			continue
		}
		lines = append(lines, f)
	}
	return lines
}

func parseMessages(lines []string) [][]byte {
	var msgs [][]byte
	for _, l := range lines {
		b, err := hex.DecodeString(strings.ReplaceAll(l, " ", ""))
		if err != nil || len(b) == 0 {
			continue
		}
		msgs = append(msgs, b)
	}
	return msgs
}

// findMessage выбирает первое сообщение с эхом mode+0x40 и PID команды
func findMessage(msgs [][]byte, cmd *obd.Command) []byte {
	for _, m := range msgs {
		if len(m) >= 2 && m[0] == cmd.Mode()+0x40 && m[1] == cmd.PID() {
			return m
		}
	}
	return nil
}
