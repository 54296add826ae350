package experiments

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Store persists sticky assignments and the append-only event log in the
// relational database.
type Store struct {
	db *sql.DB
}

// NewStore creates a store. Returns nil when db is nil so the service can
// degrade to in-memory stickiness in tests.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// GetAssignment reads the sticky variant for (sessionID, experiment).
func (s *Store) GetAssignment(ctx context.Context, sessionID, experiment string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, nil
	}

	var variant string
	err := s.db.QueryRowContext(ctx, `
		SELECT variant FROM experiment_assignments
		WHERE session_id = $1 AND experiment = $2`,
		sessionID, experiment,
	).Scan(&variant)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("experiments: get assignment: %w", err)
	}
	return variant, true, nil
}

// PutAssignment persists a new sticky assignment. A concurrent insert for
// the same pair wins silently; the caller re-reads in that case.
func (s *Store) PutAssignment(ctx context.Context, a Assignment) error {
	if s == nil || s.db == nil {
		return nil
	}

	assignedAt := a.AssignedAt
	if assignedAt.IsZero() {
		assignedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO experiment_assignments (session_id, experiment, variant, assigned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, experiment) DO NOTHING`,
		a.SessionID, a.Experiment, a.Variant, assignedAt,
	)
	if err != nil {
		return fmt.Errorf("experiments: put assignment: %w", err)
	}
	return nil
}

// AppendEvent adds one record to the experiment event log.
func (s *Store) AppendEvent(ctx context.Context, ev Event) error {
	if s == nil || s.db == nil {
		return nil
	}

	metadata, err := json.Marshal(ev.Metadata)
	if err != nil {
		return fmt.Errorf("experiments: encode metadata: %w", err)
	}

	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO experiment_events (session_id, experiment, variant, kind, value, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.SessionID, ev.Experiment, ev.Variant, string(ev.Kind), ev.Value, metadata, createdAt,
	)
	if err != nil {
		return fmt.Errorf("experiments: append event: %w", err)
	}
	return nil
}

// CountEvents returns (total events, conversion events) for an
// experiment+variant pair, computed from the event log on demand.
func (s *Store) CountEvents(ctx context.Context, experiment, variant string) (int64, int64, error) {
	if s == nil || s.db == nil {
		return 0, 0, nil
	}

	var total, conversions int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE kind = 'conversion')
		FROM experiment_events
		WHERE experiment = $1 AND variant = $2`,
		experiment, variant,
	).Scan(&total, &conversions)
	if err != nil {
		return 0, 0, fmt.Errorf("experiments: count events: %w", err)
	}
	return total, conversions, nil
}
