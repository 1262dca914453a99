package obd

import (
	"fmt"
	"math/bits"
	"strings"
)

// Состояния топливной системы (PID 03), индекс - номер установленного бита
var fuelStatusDescriptions = []string{
	"Open loop due to insufficient engine temperature",
	"Closed loop, using oxygen sensor feedback to determine fuel mix",
	"Open loop due to engine load OR fuel cut due to deceleration",
	"Open loop due to system failure",
	"Closed loop, using at least one oxygen sensor but there is a fault in the feedback system",
}

// uas - беззнаковое значение A (или A*256+B) с линейным масштабом
func uas(n int, scale, offset float64, unit Unit) Decoder {
	return func(data []byte) (Value, error) {
		d, err := Payload(data, n)
		if err != nil {
			return NoData, err
		}
		raw := 0
		for _, b := range d {
			raw = raw<<8 | int(b)
		}
		return Number(float64(raw)*scale+offset, unit), nil
	}
}

// percentCentered - (A-128)*100/128, берётся только первый байт
func percentCentered(n int) Decoder {
	return func(data []byte) (Value, error) {
		d, err := Payload(data, n)
		if err != nil {
			return NoData, err
		}
		return Number((float64(d[0])-128)*100/128, UnitPercent), nil
	}
}

func decodeFuelStatus(data []byte) (Value, error) {
	d, err := Payload(data, 2)
	if err != nil {
		return NoData, err
	}

	var banks []string
	for _, b := range d {
		if b == 0 {
			continue
		}
		if bits.OnesCount8(b) != 1 {
			return NoData, fmt.Errorf("некорректный статус топливной системы: %#02x", b)
		}
		i := bits.TrailingZeros8(b)
		if i >= len(fuelStatusDescriptions) {
			return NoData, fmt.Errorf("неизвестный статус топливной системы: %#02x", b)
		}
		banks = append(banks, fuelStatusDescriptions[i])
	}
	if len(banks) == 0 {
		return NoData, nil
	}
	return Text(strings.Join(banks, " / ")), nil
}

func decodeO2Sensors(data []byte) (Value, error) {
	d, err := Payload(data, 1)
	if err != nil {
		return NoData, err
	}

	var present []string
	for i := 0; i < 8; i++ {
		if d[0]&(1<<i) != 0 {
			present = append(present, fmt.Sprintf("B%dS%d", i/4+1, i%4+1))
		}
	}
	if len(present) == 0 {
		return Text("none"), nil
	}
	return Text(strings.Join(present, " ")), nil
}

func decodePIDBitmap(data []byte) (Value, error) {
	d, err := Payload(data, 4)
	if err != nil {
		return NoData, err
	}
	var sb strings.Builder
	for _, b := range d {
		fmt.Fprintf(&sb, "%08b", b)
	}
	return Text(sb.String()), nil
}

// SupportedPIDs разбирает битовую карту ответа 0100/0120/0140.
// base - PID запроса (0x00, 0x20, 0x40), старший бит первого байта соответствует base+1.
func SupportedPIDs(base byte, payload []byte) []byte {
	var pids []byte
	for i, b := range payload {
		for bit := 0; bit < 8; bit++ {
			if b&(0x80>>bit) != 0 {
				pids = append(pids, base+byte(i*8+bit+1))
			}
		}
	}
	return pids
}
