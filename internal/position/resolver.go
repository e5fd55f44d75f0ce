package position

import (
	"context"
	"database/sql"
	"fmt"

	"cdcstream/internal/dialect"
)

// Resolve implements the Position Resolver (C6): it combines a consumer's
// stored checkpoint (storedCheckpoint == "" means none), the probed
// dialect, and the server's current state into the Position a binlog
// session should start from, per spec.md §4.6.
//
// If storedCheckpoint is non-empty it is parsed and returned directly;
// parse errors are fatal (propagated to the caller, per §4.6 step 1).
// Otherwise the server's current position is fetched: MySQL with GTID via
// `SELECT @@global.gtid_executed`, MariaDB via
// `SELECT @@global.gtid_current_pos` (queried, but the result is neither
// kept nor used for positioning), and always `SHOW BINARY LOG STATUS` or `SHOW MASTER
// STATUS` (chosen per dialect.Info.UseBinaryLogStatus) for (filename,
// offset).
func Resolve(ctx context.Context, conn *sql.Conn, d dialect.Info, storedCheckpoint string) (Position, error) {
	if storedCheckpoint != "" {
		return Parse(storedCheckpoint)
	}

	filename, offset, err := currentBinlogStatus(ctx, conn, d)
	if err != nil {
		return Position{}, err
	}

	if d.Name == dialect.MariaDB {
		// gtid_current_pos is queried and its result discarded; MariaDB
		// always positions by file/offset.
		_, _ = currentGTID(ctx, conn, "SELECT @@global.gtid_current_pos")
		return FilePos(filename, offset), nil
	}

	if d.PositioningMode == dialect.GTID {
		gtidSet, err := currentGTID(ctx, conn, "SELECT @@global.gtid_executed")
		if err != nil {
			return Position{}, err
		}
		if gtidSet != "" {
			return GTID(gtidSet), nil
		}
	}

	return FilePos(filename, offset), nil
}

func currentGTID(ctx context.Context, conn *sql.Conn, query string) (string, error) {
	var set sql.NullString
	if err := conn.QueryRowContext(ctx, query).Scan(&set); err != nil {
		return "", fmt.Errorf("failed to query current GTID: %w", err)
	}
	return set.String, nil
}

func currentBinlogStatus(ctx context.Context, conn *sql.Conn, d dialect.Info) (string, uint64, error) {
	query := "SHOW MASTER STATUS"
	if d.UseBinaryLogStatus {
		query = "SHOW BINARY LOG STATUS"
	}

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return "", 0, fmt.Errorf("failed to query %s: %w", query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s columns: %w", query, err)
	}

	if !rows.Next() {
		return "", 0, fmt.Errorf("no master status available - is binary logging enabled?")
	}

	dest := make([]any, len(cols))
	for i := range dest {
		dest[i] = new(sql.RawBytes)
	}
	if err := rows.Scan(dest...); err != nil {
		return "", 0, fmt.Errorf("failed to scan %s: %w", query, err)
	}

	var filename string
	var offset uint64
	for i, col := range cols {
		raw := *(dest[i].(*sql.RawBytes))
		switch col {
		case "File":
			filename = string(raw)
		case "Position":
			if _, err := fmt.Sscanf(string(raw), "%d", &offset); err != nil {
				return "", 0, fmt.Errorf("failed to parse binlog position '%s': %w", string(raw), err)
			}
		}
	}
	if filename == "" {
		return "", 0, fmt.Errorf("missing or empty File column in %s", query)
	}

	return filename, offset, nil
}
