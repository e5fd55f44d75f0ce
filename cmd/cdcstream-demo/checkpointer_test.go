package main

import (
	"path/filepath"
	"testing"
)

func TestFileCheckpointerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint")
	c := newFileCheckpointer(path)

	if _, ok, err := c.LoadLastCheckpoint(); err != nil || ok {
		t.Fatalf("expected no checkpoint yet, got ok=%v err=%v", ok, err)
	}

	if err := c.SaveCheckpoint("file:mysql-bin.000001:4"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, ok, err := c.LoadLastCheckpoint()
	if err != nil || !ok {
		t.Fatalf("expected saved checkpoint, got ok=%v err=%v", ok, err)
	}
	if got != "file:mysql-bin.000001:4" {
		t.Fatalf("unexpected checkpoint: %s", got)
	}
}

func TestFileCheckpointerMissingFile(t *testing.T) {
	c := newFileCheckpointer(filepath.Join(t.TempDir(), "does-not-exist"))
	_, ok, err := c.LoadLastCheckpoint()
	if err != nil || ok {
		t.Fatalf("expected (false, nil) for missing file, got ok=%v err=%v", ok, err)
	}
}

func TestSchemaAllowlistFilter(t *testing.T) {
	f := newSchemaAllowlistFilter("cdcdemo")

	accept, err := f.Accept("INSERT", "cdcdemo", "accounts")
	if err != nil || !accept {
		t.Fatalf("expected accept for allowed schema, got %v/%v", accept, err)
	}

	accept, err = f.Accept("INSERT", "other", "accounts")
	if err != nil || accept {
		t.Fatalf("expected reject for disallowed schema, got %v/%v", accept, err)
	}
}
