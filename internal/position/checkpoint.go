package position

// EventHeader carries the fields of a binlog event header the codec needs
// to emit a checkpoint: the event timestamp and the position immediately
// after the event (go-mysql-org/go-mysql's replication.EventHeader.LogPos).
type EventHeader struct {
	Timestamp         int64
	NextEventPosition uint64
}

// State is the engine's current view of position-related server state
// (spec SessionState's position-tracking fields), as needed to format a
// checkpoint for the event just emitted.
type State struct {
	// UseGTIDCheckpoints is true for MySQL with gtid_mode=ON; false for
	// MariaDB or MySQL without GTID.
	UseGTIDCheckpoints bool
	CurrentGTIDSet     string
	CurrentFilename     string
}

// Checkpoint formats the checkpoint string to emit for header, given state,
// per spec.md §4.4's emission rules.
func Checkpoint(state State, header EventHeader) string {
	if state.UseGTIDCheckpoints && state.CurrentGTIDSet != "" {
		return GTID(state.CurrentGTIDSet).String()
	}
	filename := state.CurrentFilename
	if filename == "" {
		filename = FallbackFilename(header.NextEventPosition)
	}
	return FilePos(filename, header.NextEventPosition).String()
}
