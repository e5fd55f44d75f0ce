package position

import "testing"

func TestCheckpointGTID(t *testing.T) {
	state := State{UseGTIDCheckpoints: true, CurrentGTIDSet: "3E11FA47-71CA-11E1-9E33-C80AA9429562:1-5"}
	got := Checkpoint(state, EventHeader{NextEventPosition: 999})
	want := "gtid:3E11FA47-71CA-11E1-9E33-C80AA9429562:1-5"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCheckpointFilePos(t *testing.T) {
	state := State{UseGTIDCheckpoints: false, CurrentFilename: "mysql-bin.000004"}
	got := Checkpoint(state, EventHeader{NextEventPosition: 1500})
	want := "file:mysql-bin.000004:1500"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCheckpointFallbackFilename(t *testing.T) {
	state := State{UseGTIDCheckpoints: false}
	got := Checkpoint(state, EventHeader{NextEventPosition: 2_500_000})
	want := "file:binlog.000002:2500000"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCheckpointGTIDFallsBackWithoutSet(t *testing.T) {
	state := State{UseGTIDCheckpoints: true, CurrentFilename: "mysql-bin.000001"}
	got := Checkpoint(state, EventHeader{NextEventPosition: 42})
	want := "file:mysql-bin.000001:42"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
