package main

import (
	"os"
)

// fileCheckpointer persists a single checkpoint string to a file, the
// simplest possible Checkpointer (spec §6.3) a host could supply.
type fileCheckpointer struct {
	path string
}

func newFileCheckpointer(path string) *fileCheckpointer {
	return &fileCheckpointer{path: path}
}

func (f *fileCheckpointer) LoadLastCheckpoint() (string, bool, error) {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if len(b) == 0 {
		return "", false, nil
	}
	return string(b), true, nil
}

func (f *fileCheckpointer) SaveCheckpoint(checkpoint string) error {
	return os.WriteFile(f.path, []byte(checkpoint), 0o644)
}

// schemaAllowlistFilter accepts every event whose schema is in the
// allowed set (spec §6.4).
type schemaAllowlistFilter struct {
	allowed map[string]bool
}

func newSchemaAllowlistFilter(schemas ...string) *schemaAllowlistFilter {
	allowed := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		allowed[s] = true
	}
	return &schemaAllowlistFilter{allowed: allowed}
}

func (f *schemaAllowlistFilter) Accept(eventType, schema, table string) (bool, error) {
	return f.allowed[schema], nil
}
