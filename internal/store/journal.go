package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/quarkfield/lightcone/internal/engine"
)

// AppendRecord implements engine.Journal: one row per committed append,
// written on the serialized append path. Keys are stored in their
// fixed-point integer form so ordering in SQL matches ordering in the core.
func (db *DB) AppendRecord(ctx context.Context, rec engine.JournalRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO journal (key, payload_ref, created_at_clock, size, observable, created_at)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), ?)
	`, int64(rec.Entry.Key), rec.Entry.PayloadRef, rec.Entry.CreatedAtClock,
		rec.Entry.Size, rec.Observable, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("append journal key %s: %w", rec.Entry.Key, err)
	}
	return nil
}

// AllRecords returns the full journal in key order, for startup replay.
func (db *DB) AllRecords(ctx context.Context) ([]engine.JournalRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT key, payload_ref, created_at_clock, size, observable
		FROM journal ORDER BY key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	defer rows.Close()

	var records []engine.JournalRecord
	for rows.Next() {
		var rec engine.JournalRecord
		var key int64
		var observable sql.NullString
		if err := rows.Scan(&key, &rec.Entry.PayloadRef, &rec.Entry.CreatedAtClock,
			&rec.Entry.Size, &observable); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		rec.Entry.Key = engine.Key(key)
		rec.Observable = observable.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountRecords returns the number of journaled appends.
func (db *DB) CountRecords(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM journal").Scan(&n)
	return n, err
}
