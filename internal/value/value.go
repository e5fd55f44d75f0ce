// Package value implements the binlog column value decoder (spec C1): it
// turns whatever go-mysql-org/go-mysql's row-event decoder already produced
// for a column into the engine's closed scalar representation.
package value

import (
	"encoding/base64"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Kind tags which branch of the value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBytes
)

// Value is the closed sum type `Null | Int | Float | Text | Bytes` from
// spec.md §9. Bytes is never surfaced directly on an emitted event — Scalar
// collapses it to a base64 string, matching the language-neutral scalar the
// engine hands to consumers.
type Value struct {
	Kind  Kind
	i     int64
	f     float64
	s     string
	b     []byte
}

func Null() Value         { return Value{Kind: KindNull} }
func Int(i int64) Value   { return Value{Kind: KindInt, i: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, f: f} }
func Text(s string) Value { return Value{Kind: KindText, s: s} }
func Bytes(b []byte) Value { return Value{Kind: KindBytes, b: b} }

// Scalar converts the Value to the language-neutral scalar surfaced in an
// EmittedEvent's before/after map: nil, int64, float64, or string.
func (v Value) Scalar() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBytes:
		return base64.StdEncoding.EncodeToString(v.b)
	default:
		return nil
	}
}

// Standard MySQL wire protocol column type codes (include/mysql_com.h),
// independent of any particular client library's constant names.
const (
	typeTiny      = 1
	typeShort     = 2
	typeLong      = 3
	typeFloat     = 4
	typeDouble    = 5
	typeTimestamp = 7
	typeLongLong  = 8
	typeInt24     = 9
	typeDate      = 10
	typeTime      = 11
	typeDateTime  = 12
	typeYear      = 13
	typeVarchar   = 15
	typeBit       = 16
	typeJSON      = 245
	typeDecimal   = 246
	typeEnum      = 247
	typeSet       = 248
	typeTinyBlob  = 249
	typeMediumBlob = 250
	typeLongBlob  = 251
	typeBlob      = 252
	typeVarString = 253
	typeString    = 254
)

// Decode converts raw, the value go-mysql-org/go-mysql's row decoder already
// produced for a column of columnType, into the engine's closed Value set
// per spec.md §4.7. The only case that can fail is a DECIMAL column whose
// text does not parse as a decimal at all, which signals the upstream
// decoder handed us something the wire protocol doesn't actually produce.
func Decode(columnType byte, raw any) (Value, error) {
	if raw == nil {
		return Null(), nil
	}

	switch columnType {
	case typeTiny, typeShort, typeLong, typeLongLong, typeInt24, typeYear, typeBit, typeEnum, typeSet:
		if i, ok := asInt(raw); ok {
			return Int(i), nil
		}
		return Text(fmt.Sprint(raw)), nil

	case typeFloat, typeDouble:
		if f, ok := asFloat(raw); ok {
			return Float(f), nil
		}
		return Text(fmt.Sprint(raw)), nil

	case typeTimestamp:
		switch t := raw.(type) {
		case time.Time:
			return Int(t.Unix()), nil
		default:
			if i, ok := asInt(raw); ok {
				return Int(i), nil
			}
			return Text(fmt.Sprint(raw)), nil
		}

	case typeDecimal:
		s := fmt.Sprint(raw)
		if _, err := decimal.NewFromString(s); err != nil {
			return Value{}, fmt.Errorf("malformed decimal value %q: %w", s, err)
		}
		// The parsed decimal.Decimal is discarded: its own String() would
		// normalize trailing zeros, losing scale information the spec
		// requires preserved verbatim. Parsing here only validates.
		return Text(s), nil

	case typeDate, typeDateTime, typeTime:
		switch t := raw.(type) {
		case time.Time:
			return Text(t.Format("2006-01-02 15:04:05")), nil
		default:
			return Text(fmt.Sprint(raw)), nil
		}

	case typeVarchar, typeVarString, typeString:
		return decodeText(raw), nil

	case typeTinyBlob, typeMediumBlob, typeLongBlob, typeBlob:
		return decodeBlob(raw), nil

	case typeJSON:
		return decodeJSON(raw), nil

	default:
		// Unknown/unhandled type code: best effort, never fatal.
		if i, ok := asInt(raw); ok {
			return Int(i), nil
		}
		if f, ok := asFloat(raw); ok {
			return Float(f), nil
		}
		return decodeText(raw), nil
	}
}

func decodeText(raw any) Value {
	b, ok := asBytes(raw)
	if !ok {
		return Text(fmt.Sprint(raw))
	}
	if utf8.Valid(b) {
		return Text(string(b))
	}
	return Bytes(b)
}

func decodeBlob(raw any) Value {
	b, ok := asBytes(raw)
	if !ok {
		return Text(fmt.Sprint(raw))
	}
	return Bytes(b)
}

func decodeJSON(raw any) Value {
	b, ok := asBytes(raw)
	if !ok {
		// Already decoded to a Go structure (map/slice/scalar) by the
		// replication library; re-marshal to canonical text.
		out, err := json.Marshal(raw)
		if err != nil {
			return Text(fmt.Sprint(raw))
		}
		return Text(string(out))
	}
	// Raw JSON bytes: try to parse then re-marshal canonically; fall back
	// to base64 of the original bytes on any failure, per spec.md §4.7.
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return Bytes(b)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return Bytes(b)
	}
	return Text(string(out))
}

func asInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint:
		return int64(v), true
	default:
		return 0, false
	}
}

func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}

func asBytes(raw any) ([]byte, bool) {
	switch v := raw.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
