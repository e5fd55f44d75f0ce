package cdcstream

import (
	"cdcstream/internal/value"
)

// assembleRow implements the Row Assembler (C2): it zips a decoded row's
// ordered column values against the owning table's column names, decoding
// each value with internal/value. If the TableMap lacks column-name
// metadata — the source failed to configure binlog_row_metadata=FULL —
// this is a fatal ProtocolError naming the offending table (spec §4.8).
func assembleRow(tm tableMapEntry, cols []any) (Row, error) {
	if len(tm.columns) == 0 {
		return nil, protocolErrorf("missing column-name metadata for table %s.%s (binlog_row_metadata must be FULL)", tm.schema, tm.table)
	}

	row := make(Row, len(cols))
	for i, raw := range cols {
		name := ""
		if i < len(tm.columns) {
			name = string(tm.columns[i])
		}
		var colType byte
		if i < len(tm.columnType) {
			colType = tm.columnType[i]
		}
		v, err := value.Decode(colType, raw)
		if err != nil {
			return nil, protocolErrorf("column %s.%s.%s: %s", tm.schema, tm.table, name, err)
		}
		row[name] = v.Scalar()
	}
	return row, nil
}
