package cta

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/omadigital/engage-core/pkg/logging"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies
// it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository reads CTA definitions and appends interaction events in
// Postgres.
type Repository struct {
	db     DB
	logger *logging.Logger
}

// NewRepository initializes a repo backed by a pgx pool (or a mock in tests).
func NewRepository(db DB, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{db: db, logger: logger}
}

const activeByLanguageQuery = `
	SELECT id, cta_type, priority, action_label, keywords, language,
	       start_hour, end_hour, payload, active, views, clicks, conversions,
	       created_at
	FROM cta_definitions
	WHERE active = TRUE AND language = $1
	ORDER BY created_at ASC`

// FetchActive loads all active CTAs. The read fans out one filtered query
// per language condition concurrently and merges the results, deduplicating
// by id; merged output is ordered by creation time so catalog order (and
// therefore tie-breaking) is stable.
func (r *Repository) FetchActive(ctx context.Context) ([]Definition, error) {
	languages := []string{"fr", "en", LanguageBoth}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		merged   = make(map[string]Definition)
		firstErr error
	)

	for _, lang := range languages {
		wg.Add(1)
		go func(lang string) {
			defer wg.Done()
			defs, err := r.fetchByLanguage(ctx, lang)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for _, d := range defs {
				if _, seen := merged[d.ID]; !seen {
					merged[d.ID] = d
				}
			}
		}(lang)
	}
	wg.Wait()

	// Partial results are fine as long as at least one branch succeeded;
	// a totally failed fan-out surfaces the first error.
	if len(merged) == 0 && firstErr != nil {
		return nil, firstErr
	}
	if firstErr != nil {
		r.logger.Warn("partial CTA fan-out failure", "error", firstErr)
	}

	out := make([]Definition, 0, len(merged))
	for _, d := range merged {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repository) fetchByLanguage(ctx context.Context, lang string) ([]Definition, error) {
	rows, err := r.db.Query(ctx, activeByLanguageQuery, lang)
	if err != nil {
		return nil, fmt.Errorf("cta: query active by language: %w", err)
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var (
			d          Definition
			payloadRaw []byte
			startHour  *int
			endHour    *int
		)
		if err := rows.Scan(
			&d.ID, &d.Type, &d.Priority, &d.ActionLabel,
			&d.Conditions.Keywords, &d.Conditions.Language,
			&startHour, &endHour, &payloadRaw, &d.Active,
			&d.Views, &d.Clicks, &d.Conversions, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("cta: scan definition: %w", err)
		}
		d.Conditions.StartHour = startHour
		d.Conditions.EndHour = endHour
		if len(payloadRaw) > 0 {
			if err := json.Unmarshal(payloadRaw, &d.Payload); err != nil {
				return nil, fmt.Errorf("cta: decode payload: %w", err)
			}
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// RecordEvent appends one interaction event and bumps the matching counter
// on the definition. Counter name is mapped, never interpolated from input.
func (r *Repository) RecordEvent(ctx context.Context, ev Event) error {
	var counter string
	switch ev.Kind {
	case EventView:
		counter = "views"
	case EventClick:
		counter = "clicks"
	case EventConversion:
		counter = "conversions"
	default:
		return fmt.Errorf("cta: unknown event kind %q", ev.Kind)
	}

	metadata, err := json.Marshal(ev.Metadata)
	if err != nil {
		return fmt.Errorf("cta: encode event metadata: %w", err)
	}

	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO cta_events (cta_id, session_id, kind, value, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.CTAID, ev.SessionID, string(ev.Kind), ev.Value, metadata, createdAt,
	); err != nil {
		return fmt.Errorf("cta: insert event: %w", err)
	}

	if _, err := r.db.Exec(ctx, fmt.Sprintf(`
		UPDATE cta_definitions SET %s = %s + 1 WHERE id = $1`, counter, counter),
		ev.CTAID,
	); err != nil {
		return fmt.Errorf("cta: bump %s counter: %w", counter, err)
	}
	return nil
}
