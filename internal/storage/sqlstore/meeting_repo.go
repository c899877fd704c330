package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/domain"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/repository"
)

var _ repository.MeetingRepository = (*MeetingRepo)(nil)

// MeetingRepo stores meeting records in Postgres or SQLite. Every state
// change is written to the outbox table in the same transaction.
type MeetingRepo struct {
	db *sqlx.DB
}

func NewMeetingRepo(db *sqlx.DB) *MeetingRepo {
	return &MeetingRepo{db: db}
}

const meetingColumns = `id, audio_locator, transcript, summary_text, action_items, state, created_at, updated_at`

type meetingRow struct {
	ID           string         `db:"id"`
	AudioLocator string         `db:"audio_locator"`
	Transcript   sql.NullString `db:"transcript"`
	SummaryText  sql.NullString `db:"summary_text"`
	ActionItems  sql.NullString `db:"action_items"`
	State        string         `db:"state"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func toRow(m models.MeetingRecord) (meetingRow, error) {
	row := meetingRow{
		ID:           m.ID.String(),
		AudioLocator: m.AudioLocator,
		State:        string(m.State),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.Transcript != nil {
		row.Transcript = sql.NullString{String: *m.Transcript, Valid: true}
	}
	if m.Summary != nil {
		items := m.Summary.ActionItems
		if items == nil {
			items = []string{}
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return meetingRow{}, fmt.Errorf("marshal action items: %w", err)
		}
		row.SummaryText = sql.NullString{String: m.Summary.Text, Valid: true}
		row.ActionItems = sql.NullString{String: string(raw), Valid: true}
	}
	return row, nil
}

func (row meetingRow) toModel() (models.MeetingRecord, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return models.MeetingRecord{}, fmt.Errorf("parse meeting id: %w", err)
	}
	state, err := domain.ParseState(row.State)
	if err != nil {
		return models.MeetingRecord{}, err
	}

	m := models.MeetingRecord{
		ID:           id,
		AudioLocator: row.AudioLocator,
		State:        state,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.Transcript.Valid {
		t := row.Transcript.String
		m.Transcript = &t
	}
	if row.SummaryText.Valid {
		s := models.Summary{Text: row.SummaryText.String, ActionItems: []string{}}
		if row.ActionItems.Valid && row.ActionItems.String != "" {
			if err := json.Unmarshal([]byte(row.ActionItems.String), &s.ActionItems); err != nil {
				return models.MeetingRecord{}, fmt.Errorf("unmarshal action items: %w", err)
			}
		}
		m.Summary = &s
	}
	return m, nil
}

func (r *MeetingRepo) Create(ctx context.Context, m models.MeetingRecord) error {
	if err := m.Validate(); err != nil {
		return err
	}
	row, err := toRow(m)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("meeting create: begin: %w", err)
	}
	defer tx.Rollback()

	q := tx.Rebind(`
		INSERT INTO meetings (` + meetingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = tx.ExecContext(ctx, q,
		row.ID, row.AudioLocator, row.Transcript, row.SummaryText, row.ActionItems,
		row.State, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("meeting create: %w", err)
	}

	event := models.NewMeetingStateChanged(m.ID, "", m.State, m.UpdatedAt)
	if err := addOutbox(ctx, tx, event); err != nil {
		return fmt.Errorf("meeting create: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("meeting create: commit: %w", err)
	}
	return nil
}

func (r *MeetingRepo) Update(ctx context.Context, m models.MeetingRecord) error {
	if err := m.Validate(); err != nil {
		return err
	}
	row, err := toRow(m)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("meeting update: begin: %w", err)
	}
	defer tx.Rollback()

	var current meetingRow
	sel := tx.Rebind(`SELECT ` + meetingColumns + ` FROM meetings WHERE id = ?`)
	if r.db.DriverName() == DriverPostgres {
		sel += " FOR UPDATE"
	}
	if err := tx.GetContext(ctx, &current, sel, row.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		return fmt.Errorf("meeting update: load: %w", err)
	}
	if current.AudioLocator != row.AudioLocator || !sameInstant(current.CreatedAt, row.CreatedAt) {
		return models.ErrConflict
	}

	q := tx.Rebind(`
		UPDATE meetings
		SET transcript = ?, summary_text = ?, action_items = ?, state = ?, updated_at = ?
		WHERE id = ?
	`)
	if _, err := tx.ExecContext(ctx, q,
		row.Transcript, row.SummaryText, row.ActionItems, row.State, row.UpdatedAt, row.ID,
	); err != nil {
		return fmt.Errorf("meeting update: %w", err)
	}

	if current.State != row.State {
		event := models.NewMeetingStateChanged(m.ID, domain.State(current.State), m.State, m.UpdatedAt)
		if err := addOutbox(ctx, tx, event); err != nil {
			return fmt.Errorf("meeting update: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("meeting update: commit: %w", err)
	}
	return nil
}

func (r *MeetingRepo) GetByID(ctx context.Context, id uuid.UUID) (models.MeetingRecord, error) {
	q := r.db.Rebind(`SELECT ` + meetingColumns + ` FROM meetings WHERE id = ?`)

	var row meetingRow
	if err := r.db.GetContext(ctx, &row, q, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MeetingRecord{}, models.ErrNotFound
		}
		return models.MeetingRecord{}, fmt.Errorf("meeting get by id: %w", err)
	}

	return row.toModel()
}

func (r *MeetingRepo) List(ctx context.Context) ([]models.MeetingRecord, error) {
	q := `SELECT ` + meetingColumns + ` FROM meetings ORDER BY seq ASC`

	var rows []meetingRow
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("meeting list: %w", err)
	}

	out := make([]models.MeetingRecord, 0, len(rows))
	for _, row := range rows {
		m, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MeetingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	q := r.db.Rebind(`DELETE FROM meetings WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, q, id.String())
	if err != nil {
		return fmt.Errorf("meeting delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("meeting delete: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// sameInstant tolerates the microsecond rounding of Postgres timestamps.
func sameInstant(a, b time.Time) bool {
	return a.Sub(b).Abs() < time.Microsecond
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
