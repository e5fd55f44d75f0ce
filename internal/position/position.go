// Package position implements the Checkpoint Codec (spec C4): the textual
// serialisation of a binlog Position, and the pure parse/format rules that
// the engine and the Position Resolver build on.
package position

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags which branch of a Position is populated.
type Kind int

const (
	KindGTID Kind = iota
	KindFilePos
)

// Position is either a GTID set or a (filename, offset) pair.
type Position struct {
	Kind     Kind
	GTIDSet  string
	Filename string
	Offset   uint64
}

// GTID builds a GTID-form Position.
func GTID(set string) Position {
	return Position{Kind: KindGTID, GTIDSet: set}
}

// FilePos builds a file/offset-form Position.
func FilePos(filename string, offset uint64) Position {
	return Position{Kind: KindFilePos, Filename: filename, Offset: offset}
}

// String serialises the Position to its checkpoint form: "gtid:<set>" or
// "file:<filename>:<offset>".
func (p Position) String() string {
	if p.Kind == KindGTID {
		return "gtid:" + p.GTIDSet
	}
	return fmt.Sprintf("file:%s:%d", p.Filename, p.Offset)
}

// Parse decodes a checkpoint string into a Position, per spec.md §4.4.
//
// Unknown prefix: "Invalid checkpoint format". File form with a
// non-numeric offset: "Invalid binlog position". File form missing a ':'
// in its tail: "Invalid file checkpoint format".
func Parse(checkpoint string) (Position, error) {
	switch {
	case strings.HasPrefix(checkpoint, "gtid:"):
		return GTID(checkpoint[len("gtid:"):]), nil

	case strings.HasPrefix(checkpoint, "file:"):
		tail := checkpoint[len("file:"):]
		colon := strings.LastIndexByte(tail, ':')
		if colon < 0 {
			return Position{}, fmt.Errorf("Invalid file checkpoint format: '%s'", checkpoint)
		}
		filename := tail[:colon]
		offsetStr := tail[colon+1:]
		offset, err := strconv.ParseUint(offsetStr, 10, 64)
		if err != nil {
			return Position{}, fmt.Errorf("Invalid binlog position: '%s': %w", checkpoint, err)
		}
		return FilePos(filename, offset), nil

	default:
		return Position{}, fmt.Errorf("Invalid checkpoint format: '%s'. Must start with 'gtid:' or 'file:'", checkpoint)
	}
}

// FallbackFilename synthesises a placeholder binlog filename for the rare
// case a file/offset checkpoint must be emitted before any real filename is
// known, mirroring the reference's "emergency fallback" naming scheme.
func FallbackFilename(nextEventPosition uint64) string {
	return fmt.Sprintf("binlog.%06d", nextEventPosition/1_000_000)
}
