package cdcstream

import "testing"

func TestInsertEventShape(t *testing.T) {
	e := InsertEvent(100, "file:x:1", "s", "t", Row{"id": int64(1)})
	if e.Type != INSERT || e.Before != nil || e.After == nil {
		t.Fatalf("INSERT must have only After: %+v", e)
	}
}

func TestDeleteEventShape(t *testing.T) {
	e := DeleteEvent(100, "file:x:1", "s", "t", Row{"id": int64(1)})
	if e.Type != DELETE || e.After != nil || e.Before == nil {
		t.Fatalf("DELETE must have only Before: %+v", e)
	}
}

func TestUpdateEventShape(t *testing.T) {
	e := UpdateEvent(100, "file:x:1", "s", "t", Row{"id": int64(1)}, Row{"id": int64(2)})
	if e.Type != UPDATE || e.Before == nil || e.After == nil {
		t.Fatalf("UPDATE must have both Before and After: %+v", e)
	}
}
