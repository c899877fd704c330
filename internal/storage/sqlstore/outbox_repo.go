package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
)

type OutboxRepo struct {
	db    *sqlx.DB
	clock func() time.Time
}

type OutboxRecord struct {
	ID          int64     `db:"id"`
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	AggregateID string    `db:"aggregate_id"`
	Payload     []byte    `db:"payload"`
	OccurredAt  time.Time `db:"occurred_at"`
}

func NewOutboxRepo(db *sqlx.DB) *OutboxRepo {
	return &OutboxRepo{db: db, clock: time.Now}
}

func addOutbox(ctx context.Context, tx *sqlx.Tx, event models.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	q := tx.Rebind(`
		INSERT INTO outbox (event_id, event_type, aggregate_id, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err = tx.ExecContext(ctx, q,
		event.EventID().String(),
		event.EventType(),
		event.AggregateID().String(),
		string(payload),
		event.OccurredAt().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}

	return nil
}

func (r *OutboxRepo) GetPending(ctx context.Context, limit int) ([]OutboxRecord, error) {
	q := r.db.Rebind(`
		SELECT id, event_id, event_type, aggregate_id, payload, occurred_at
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY id ASC
		LIMIT ?
	`)

	var records []OutboxRecord
	if err := r.db.SelectContext(ctx, &records, q, limit); err != nil {
		return nil, fmt.Errorf("get pending: %w", err)
	}

	return records, nil
}

func (r *OutboxRepo) MarkProcessed(ctx context.Context, id int64) error {
	q := r.db.Rebind(`
		UPDATE outbox
		SET processed_at = ?
		WHERE id = ?
	`)

	if _, err := r.db.ExecContext(ctx, q, r.clock().UTC(), id); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}

	return nil
}
