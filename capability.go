package cdcstream

// Checkpointer is the consumer-supplied checkpoint store (spec §6.3): a
// durable key/value slot the engine reads from on rewind and writes to
// after every emitted event. The save happens as soon as the event is
// emitted, before the consumer has processed it, so delivery is
// at-most-once past the last saved checkpoint.
type Checkpointer interface {
	// LoadLastCheckpoint returns the most recently saved checkpoint, or
	// ("", false) if none has been saved yet.
	LoadLastCheckpoint() (string, bool, error)
	// SaveCheckpoint persists checkpoint. A returned error is fatal to
	// the Next call that produced it (spec §4.1 step 3d).
	SaveCheckpoint(checkpoint string) error
}

// Filter is the consumer-supplied row filter (spec §6.4). Accept is
// consulted once per binlog rows event, before its rows are assembled, and
// its verdict applies to every row that event carries; errors during
// the event loop are logged and the event is skipped, never fatal (spec
// §4.1 step 3b, §7).
type Filter interface {
	Accept(eventType, schema, table string) (bool, error)
}
