package obd

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrDecodeMismatch - длина ответа не совпадает с ожидаемой для команды
var ErrDecodeMismatch = errors.New("несовпадение длины ответа")

// Decoder преобразует данные сообщения (вместе с эхом mode/PID) в значение
type Decoder func(data []byte) (Value, error)

// Command описывает один запрос к ECU
type Command struct {
	Name    string
	Desc    string
	Request string // ASCII hex, например "010C"
	Bytes   int    // ожидаемое число значащих байт ответа без эха mode/PID
	Decoder Decoder
}

// NewCommand создаёт команду. Используется и для пользовательских команд.
func NewCommand(name, desc, request string, bytes int, decoder Decoder) *Command {
	return &Command{
		Name:    name,
		Desc:    desc,
		Request: request,
		Bytes:   bytes,
		Decoder: decoder,
	}
}

// Mode возвращает байт режима запроса
func (c *Command) Mode() byte {
	b, _ := c.requestBytes()
	if len(b) < 1 {
		return 0
	}
	return b[0]
}

// PID возвращает байт PID запроса
func (c *Command) PID() byte {
	b, _ := c.requestBytes()
	if len(b) < 2 {
		return 0
	}
	return b[1]
}

func (c *Command) requestBytes() ([]byte, error) {
	return hex.DecodeString(c.Request)
}

// Decode вызывает декодер команды
func (c *Command) Decode(data []byte) (Value, error) {
	if c.Decoder == nil {
		return NoData, fmt.Errorf("команда %s без декодера", c.Name)
	}
	return c.Decoder(data)
}

func (c *Command) String() string {
	return fmt.Sprintf("%s: %s", c.Request, c.Desc)
}

// Payload отрезает эхо mode/PID и проверяет число значащих байт
func Payload(data []byte, want int) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: нет эха mode/PID (%d байт)", ErrDecodeMismatch, len(data))
	}
	d := data[2:]
	if len(d) != want {
		return nil, fmt.Errorf("%w: ожидалось %d байт, получено %d", ErrDecodeMismatch, want, len(d))
	}
	return d, nil
}
