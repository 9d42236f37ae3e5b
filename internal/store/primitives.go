package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quarkfield/lightcone/internal/engine"
)

// PutPrimitive stores an immutable primitive fact. Assigns a fresh UUID
// when no ID is given. Primitives are never updated or deleted; a second
// insert under the same ID is rejected by the primary key.
func (db *DB) PutPrimitive(ctx context.Context, p *engine.Primitive) error {
	if !engine.ValidKind(p.Kind) {
		return fmt.Errorf("put primitive: %w", engine.ErrUnknownKind)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO primitives (id, kind, observable, data, created_at)
		VALUES (?, ?, NULLIF(?, ''), ?, ?)
	`, p.ID, string(p.Kind), p.Observable, p.Data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put primitive %s: %w", p.ID, err)
	}
	return nil
}

// GetPrimitive implements engine.PrimitiveStore. Read-only.
func (db *DB) GetPrimitive(ctx context.Context, id string) (engine.Primitive, error) {
	var p engine.Primitive
	var kind string
	var observable sql.NullString

	err := db.QueryRowContext(ctx, `
		SELECT id, kind, observable, data FROM primitives WHERE id = ?
	`, id).Scan(&p.ID, &kind, &observable, &p.Data)
	if err == sql.ErrNoRows {
		return engine.Primitive{}, fmt.Errorf("primitive %s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return engine.Primitive{}, fmt.Errorf("get primitive %s: %w", id, err)
	}
	p.Kind = engine.PayloadKind(kind)
	p.Observable = observable.String
	return p, nil
}

// CountPrimitives returns the number of stored primitives.
func (db *DB) CountPrimitives(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM primitives").Scan(&n)
	return n, err
}
