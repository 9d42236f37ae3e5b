package store

import (
	"context"
	"errors"
	"testing"

	"github.com/quarkfield/lightcone/internal/engine"
)

func TestPutGetPrimitive(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	p := engine.Primitive{
		ID:         "p1",
		Kind:       engine.KindBrane,
		Observable: "flux",
		Data:       []byte{1, 2, 3, 4},
	}
	if err := db.PutPrimitive(ctx, &p); err != nil {
		t.Fatalf("PutPrimitive: %v", err)
	}

	got, err := db.GetPrimitive(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPrimitive: %v", err)
	}
	if got.Kind != engine.KindBrane {
		t.Errorf("Kind = %q, want brane", got.Kind)
	}
	if got.Observable != "flux" {
		t.Errorf("Observable = %q, want flux", got.Observable)
	}
	if string(got.Data) != string(p.Data) {
		t.Errorf("Data = %v, want %v", got.Data, p.Data)
	}
}

func TestPutPrimitiveAssignsID(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	p := engine.Primitive{Kind: engine.KindString, Data: []byte{1}}
	if err := db.PutPrimitive(context.Background(), &p); err != nil {
		t.Fatalf("PutPrimitive: %v", err)
	}
	if p.ID == "" {
		t.Error("expected assigned ID, got empty")
	}
}

func TestPutPrimitiveRejectsUnknownKind(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	p := engine.Primitive{Kind: "tensor", Data: []byte{1}}
	err = db.PutPrimitive(context.Background(), &p)
	if !errors.Is(err, engine.ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestGetPrimitiveNotFound(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	_, err = db.GetPrimitive(context.Background(), "missing")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCountPrimitives(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		p := engine.Primitive{Kind: engine.KindString, Data: []byte{byte(i)}}
		if err := db.PutPrimitive(ctx, &p); err != nil {
			t.Fatalf("PutPrimitive: %v", err)
		}
	}

	n, err := db.CountPrimitives(ctx)
	if err != nil {
		t.Fatalf("CountPrimitives: %v", err)
	}
	if n != 3 {
		t.Errorf("CountPrimitives = %d, want 3", n)
	}
}
