package obd

import (
	"math"
	"strconv"
)

// Unit - единица измерения физической величины
type Unit string

const (
	UnitNone       Unit = ""
	UnitKPH        Unit = "kph"
	UnitRPM        Unit = "rpm"
	UnitKilopascal Unit = "kilopascal"
	UnitDegree     Unit = "degree"
	UnitPercent    Unit = "percent"
)

// Kind различает варианты Value
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

// Value - значение с единицей измерения, текст или отсутствие данных
type Value struct {
	Kind      Kind
	Magnitude float64
	Unit      Unit
	Text      string
}

// NoData - пустое значение для неудачного запроса
var NoData = Value{Kind: KindNull}

// Number создаёт числовое значение
func Number(magnitude float64, unit Unit) Value {
	return Value{Kind: KindNumber, Magnitude: magnitude, Unit: unit}
}

// Text создаёт текстовое значение
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// String возвращает представление для CSV: "<величина> <единица>", текст как есть
// или пустую строку для NoData.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		s := strconv.FormatFloat(round6(v.Magnitude), 'f', -1, 64)
		if v.Unit == UnitNone {
			return s
		}
		return s + " " + string(v.Unit)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

func round6(f float64) float64 {
	r := math.Round(f*1e6) / 1e6
	if r == 0 {
		return 0 // без "-0"
	}
	return r
}
