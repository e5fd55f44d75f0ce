package value

import (
	stdjson "encoding/json"
	"testing"
)

func mustDecode(t *testing.T, columnType byte, raw any) Value {
	t.Helper()
	v, err := Decode(columnType, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func TestDecodeNull(t *testing.T) {
	v := mustDecode(t, typeLong, nil)
	if v.Kind != KindNull {
		t.Fatalf("want KindNull, got %v", v.Kind)
	}
	if v.Scalar() != nil {
		t.Fatalf("want nil scalar, got %v", v.Scalar())
	}
}

func TestDecodeIntegers(t *testing.T) {
	tests := []struct {
		name string
		typ  byte
		raw  any
		want int64
	}{
		{"tiny", typeTiny, int8(5), 5},
		{"short", typeShort, int16(-7), -7},
		{"long", typeLong, int32(1234), 1234},
		{"longlong", typeLongLong, int64(9000000000), 9000000000},
		{"year", typeYear, int16(2024), 2024},
		{"enum raw", typeEnum, uint8(2), 2},
		{"set raw", typeSet, uint64(3), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := mustDecode(t, tt.typ, tt.raw)
			if v.Kind != KindInt {
				t.Fatalf("want KindInt, got %v", v.Kind)
			}
			if got := v.Scalar().(int64); got != tt.want {
				t.Fatalf("want %d, got %d", tt.want, got)
			}
		})
	}
}

func TestDecodeFloat(t *testing.T) {
	v := mustDecode(t, typeDouble, float64(3.25))
	if v.Kind != KindFloat {
		t.Fatalf("want KindFloat, got %v", v.Kind)
	}
	if v.Scalar().(float64) != 3.25 {
		t.Fatalf("want 3.25, got %v", v.Scalar())
	}
}

func TestDecodeDecimalText(t *testing.T) {
	v := mustDecode(t, typeDecimal, "123.4500")
	if v.Kind != KindText {
		t.Fatalf("want KindText, got %v", v.Kind)
	}
	if v.Scalar().(string) != "123.4500" {
		t.Fatalf("decimal must round-trip losslessly, got %v", v.Scalar())
	}
}

func TestDecodeDecimalMalformedIsError(t *testing.T) {
	_, err := Decode(typeDecimal, "not-a-decimal")
	if err == nil {
		t.Fatalf("want error for malformed decimal text")
	}
}

func TestDecodeTextUTF8(t *testing.T) {
	v := mustDecode(t, typeVarchar, []byte("hello"))
	if v.Kind != KindText {
		t.Fatalf("want KindText, got %v", v.Kind)
	}
	if v.Scalar().(string) != "hello" {
		t.Fatalf("want hello, got %v", v.Scalar())
	}
}

func TestDecodeTextInvalidUTF8FallsBackToBytes(t *testing.T) {
	invalid := []byte{0xff, 0xfe, 0x00}
	v := mustDecode(t, typeVarString, invalid)
	if v.Kind != KindBytes {
		t.Fatalf("want KindBytes for invalid UTF-8, got %v", v.Kind)
	}
	// Scalar must base64-encode, never surface raw bytes.
	if _, ok := v.Scalar().(string); !ok {
		t.Fatalf("want scalar to be a base64 string, got %T", v.Scalar())
	}
}

func TestDecodeBlob(t *testing.T) {
	v := mustDecode(t, typeBlob, []byte{0x01, 0x02, 0x03})
	if v.Kind != KindBytes {
		t.Fatalf("want KindBytes, got %v", v.Kind)
	}
}

func TestDecodeJSONCanonicalizes(t *testing.T) {
	v := mustDecode(t, typeJSON, []byte(`{"b":2,"a":1}`))
	if v.Kind != KindText {
		t.Fatalf("want KindText, got %v", v.Kind)
	}
	// goccy/go-json re-marshals; exact key order isn't guaranteed by the
	// JSON spec, but the result must still be valid, parseable JSON text.
	if !stdjson.Valid([]byte(v.Scalar().(string))) {
		t.Fatalf("want valid canonical JSON text, got %q", v.Scalar())
	}
}

func TestDecodeJSONParseFailureFallsBackToBase64(t *testing.T) {
	v := mustDecode(t, typeJSON, []byte{0xff, 0x00, 0x01})
	if v.Kind != KindBytes {
		t.Fatalf("want KindBytes fallback on JSON parse failure, got %v", v.Kind)
	}
}

func TestDecodeTimestampAsSeconds(t *testing.T) {
	v := mustDecode(t, typeTimestamp, int64(1700000000))
	if v.Kind != KindInt {
		t.Fatalf("want KindInt, got %v", v.Kind)
	}
	if v.Scalar().(int64) != 1700000000 {
		t.Fatalf("want 1700000000, got %v", v.Scalar())
	}
}
