package store

import (
	"context"
	"testing"

	"github.com/quarkfield/lightcone/internal/engine"
)

func journalFixture(t *testing.T) (*DB, context.Context) {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	p := engine.Primitive{ID: "p1", Kind: engine.KindString, Data: []byte{1}}
	if err := db.PutPrimitive(ctx, &p); err != nil {
		t.Fatalf("PutPrimitive: %v", err)
	}
	return db, ctx
}

func TestAppendAndLoadRecords(t *testing.T) {
	db, ctx := journalFixture(t)

	recs := []engine.JournalRecord{
		{Entry: engine.Entry{Key: engine.KeyFromFloat(2), PayloadRef: "p1", CreatedAtClock: 2, Size: 1}},
		{Entry: engine.Entry{Key: engine.KeyFromFloat(1), PayloadRef: "p1", CreatedAtClock: 1, Size: 1}, Observable: "flux"},
	}
	for _, rec := range recs {
		if err := db.AppendRecord(ctx, rec); err != nil {
			t.Fatalf("AppendRecord: %v", err)
		}
	}

	got, err := db.AllRecords(ctx)
	if err != nil {
		t.Fatalf("AllRecords: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Key order, regardless of insert order.
	if got[0].Entry.Key != engine.KeyFromFloat(1) || got[1].Entry.Key != engine.KeyFromFloat(2) {
		t.Errorf("keys = %v, %v; want 1, 2", got[0].Entry.Key, got[1].Entry.Key)
	}
	if got[0].Observable != "flux" {
		t.Errorf("Observable = %q, want flux", got[0].Observable)
	}
	if got[1].Observable != "" {
		t.Errorf("Observable = %q, want empty", got[1].Observable)
	}
	if got[0].Entry.CreatedAtClock != 1 {
		t.Errorf("CreatedAtClock = %d, want 1", got[0].Entry.CreatedAtClock)
	}
}

func TestAppendRecordRejectsDanglingRef(t *testing.T) {
	db, ctx := journalFixture(t)

	rec := engine.JournalRecord{
		Entry: engine.Entry{Key: engine.KeyFromFloat(1), PayloadRef: "ghost", CreatedAtClock: 1, Size: 1},
	}
	if err := db.AppendRecord(ctx, rec); err == nil {
		t.Error("expected foreign key error for dangling payload ref, got nil")
	}
}

func TestCountRecords(t *testing.T) {
	db, ctx := journalFixture(t)

	n, err := db.CountRecords(ctx)
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if n != 0 {
		t.Errorf("CountRecords = %d, want 0", n)
	}

	rec := engine.JournalRecord{
		Entry: engine.Entry{Key: engine.KeyFromFloat(1), PayloadRef: "p1", CreatedAtClock: 1, Size: 1},
	}
	if err := db.AppendRecord(ctx, rec); err != nil {
		t.Fatalf("AppendRecord: %v", err)
	}
	n, err = db.CountRecords(ctx)
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if n != 1 {
		t.Errorf("CountRecords = %d, want 1", n)
	}
}
