package db

import (
	"context"
	"fmt"
	"time"
)

type ShotEvent struct {
	SessionID string
	TargetID  int
	Hit       bool
	Band      int
	X         float64
	Y         float64
	ShotAt    time.Time
}

func (d *DB) RecordShot(ctx context.Context, ev ShotEvent) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO shot_events (session_id, target_id, hit, band, x, y, shot_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ev.SessionID, ev.TargetID, ev.Hit, ev.Band, ev.X, ev.Y, ev.ShotAt)
	if err != nil {
		return fmt.Errorf("recording shot: %w", err)
	}
	return nil
}

func (d *DB) BatchRecordShots(ctx context.Context, events []ShotEvent) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shot_events (session_id, target_id, hit, band, x, y, shot_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, ev.SessionID, ev.TargetID, ev.Hit, ev.Band, ev.X, ev.Y, ev.ShotAt); err != nil {
			return fmt.Errorf("recording shot in batch: %w", err)
		}
	}

	return tx.Commit()
}
