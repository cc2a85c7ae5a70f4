package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scriptorium/claimledger/internal/domain"
)

// PostgresEventStore persists the event log in a single append-only table.
// Events are stored as JSONB keyed by sequence number; the primary key makes
// double-appends impossible at the database level.
type PostgresEventStore struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

// EnsureSchema creates the claim_events table if it does not exist.
func (s *PostgresEventStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS claim_events (
			seq        BIGINT PRIMARY KEY,
			kind       TEXT NOT NULL,
			claim_id   TEXT NOT NULL,
			at         TIMESTAMPTZ NOT NULL,
			payload    JSONB NOT NULL
		)`,
	)
	if err != nil {
		return fmt.Errorf("ensure claim_events schema: %w", err)
	}
	return nil
}

func (s *PostgresEventStore) Load(ctx context.Context) ([]domain.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT seq, payload FROM claim_events ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var seq int64
		var payload []byte
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		var e domain.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, &CorruptLogError{Source: "claim_events", Line: int(seq), Err: err}
		}
		if e.Seq != uint64(len(events))+1 {
			return nil, &CorruptLogError{Source: "claim_events", Line: int(seq),
				Err: fmt.Errorf("sequence gap: got %d, want %d", e.Seq, len(events)+1)}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load event rows: %w", err)
	}
	return events, nil
}

func (s *PostgresEventStore) Append(ctx context.Context, e *domain.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO claim_events (seq, kind, claim_id, at, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		int64(e.Seq), string(e.Kind), string(e.ClaimID), e.At, payload,
	)
	if err != nil {
		return fmt.Errorf("append event %d: %w", e.Seq, err)
	}
	return nil
}
