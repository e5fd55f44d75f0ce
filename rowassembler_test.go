package cdcstream

import "testing"

func TestAssembleRow(t *testing.T) {
	tm := tableMapEntry{
		schema:     "s",
		table:      "t",
		columns:    [][]byte{[]byte("id"), []byte("name")},
		columnType: []byte{3, 15}, // typeLong, typeVarchar
	}
	row, err := assembleRow(tm, []any{int32(7), []byte("ada")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row["id"] != int64(7) {
		t.Fatalf("want id=7, got %v", row["id"])
	}
	if row["name"] != "ada" {
		t.Fatalf("want name=ada, got %v", row["name"])
	}
}

func TestAssembleRowMissingColumnMetadataIsFatal(t *testing.T) {
	tm := tableMapEntry{schema: "s", table: "t"}
	_, err := assembleRow(tm, []any{int32(1)})
	se, ok := err.(*StreamError)
	if !ok || se.Class() != ClassProtocol {
		t.Fatalf("want ProtocolError, got %v", err)
	}
}

func TestAssembleRowMalformedDecimalIsFatal(t *testing.T) {
	tm := tableMapEntry{
		schema:     "s",
		table:      "t",
		columns:    [][]byte{[]byte("amount")},
		columnType: []byte{246}, // typeDecimal
	}
	_, err := assembleRow(tm, []any{"not-a-decimal"})
	se, ok := err.(*StreamError)
	if !ok || se.Class() != ClassProtocol {
		t.Fatalf("want ProtocolError, got %v", err)
	}
}
