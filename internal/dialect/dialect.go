// Package dialect implements the Dialect Probe (spec C5): it identifies
// MySQL vs MariaDB, validates the server configuration contract (spec
// §6.6), and picks the positioning mode.
package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
)

// Name is the server flavor.
type Name int

const (
	MySQL Name = iota
	MariaDB
)

func (n Name) String() string {
	if n == MariaDB {
		return "mariadb"
	}
	return "mysql"
}

// PositioningMode selects how the engine tracks and resumes position.
type PositioningMode int

const (
	FilePos PositioningMode = iota
	GTID
)

// Info is the result of a successful Probe.
type Info struct {
	Name            Name
	PositioningMode PositioningMode
	// UseBinaryLogStatus is true when the server is MySQL 8.4+, where
	// SHOW MASTER STATUS was renamed to SHOW BINARY LOG STATUS.
	UseBinaryLogStatus bool
}

// mysql84 is the version floor at which SHOW MASTER STATUS was renamed.
var mysql84 = semver.MustParse("8.4.0")

// Probe runs the read-only configuration checks of spec.md §4.3 over conn
// and returns the detected dialect, or a descriptive error identifying which
// server variable violated the required configuration.
func Probe(ctx context.Context, conn *sql.Conn) (Info, error) {
	var info Info

	if err := requireVariable(ctx, conn, "binlog_format", "ROW"); err != nil {
		return info, err
	}
	if err := requireVariable(ctx, conn, "binlog_row_image", "FULL"); err != nil {
		return info, err
	}
	if err := requireVariable(ctx, conn, "binlog_row_metadata", "FULL"); err != nil {
		return info, err
	}

	var version string
	if err := conn.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return info, fmt.Errorf("failed to query database version: %w", err)
	}

	if strings.Contains(strings.ToLower(version), "mariadb") {
		info.Name = MariaDB
		info.PositioningMode = FilePos
		info.UseBinaryLogStatus = false
		return info, nil
	}

	info.Name = MySQL

	gtidMode, err := readVariable(ctx, conn, "gtid_mode")
	if err != nil {
		return info, err
	}
	if strings.ToUpper(gtidMode) != "ON" {
		return info, fmt.Errorf("gtid_mode must be ON, got: %s", gtidMode)
	}
	info.PositioningMode = GTID

	info.UseBinaryLogStatus = mysqlAtLeast84(version)

	return info, nil
}

func mysqlAtLeast84(version string) bool {
	// MySQL version strings are a bare X.Y.Z, optionally followed by a
	// vendor suffix (e.g. "8.0.36-commercial"); take the numeric prefix.
	fields := strings.FieldsFunc(version, func(r rune) bool {
		return r == '-' || r == ' '
	})
	if len(fields) == 0 {
		return false
	}
	v, err := semver.NewVersion(fields[0])
	if err != nil {
		return false
	}
	return !v.LessThan(mysql84)
}

func readVariable(ctx context.Context, conn *sql.Conn, name string) (string, error) {
	var gotName, value string
	query := fmt.Sprintf("SHOW VARIABLES LIKE '%s'", name)
	err := conn.QueryRowContext(ctx, query).Scan(&gotName, &value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("server variable %s is not set", name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", name, err)
	}
	return value, nil
}

func requireVariable(ctx context.Context, conn *sql.Conn, name, want string) error {
	got, err := readVariable(ctx, conn, name)
	if err != nil {
		return err
	}
	if strings.ToUpper(got) != want {
		return fmt.Errorf("%s must be %s, got: %s", name, want, got)
	}
	return nil
}
