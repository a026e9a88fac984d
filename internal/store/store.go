package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a script does not exist.
var ErrNotFound = errors.New("store: not found")

//go:embed schema.sql
var schema string

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

// Script is a prepared narration: the source text, its normalized form and
// the chunks that will be sent to the speech generator.
type Script struct {
	ID             string    `json:"id"`
	SourceText     string    `json:"source_text"`
	NormalizedText string    `json:"normalized_text"`
	Chunks         []string  `json:"chunks"`
	MaxChars       int       `json:"max_chars"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScriptEvent represents a logged event for a script
type ScriptEvent struct {
	ID        int64           `json:"id"`
	ScriptID  string          `json:"script_id"`
	EventType string          `json:"event_type"`
	EventData json.RawMessage `json:"event_data"`
	CreatedAt time.Time       `json:"created_at"`
}

// ============================================================================
// Script operations
// ============================================================================

// CreateScript stores sc and returns it with its ID and creation time set.
// An empty sc.ID gets a fresh UUID.
func (s *Store) CreateScript(ctx context.Context, sc Script) (*Script, error) {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if sc.Chunks == nil {
		sc.Chunks = []string{}
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO scripts (id, source_text, normalized_text, chunks, max_chars)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, sc.ID, sc.SourceText, sc.NormalizedText, sc.Chunks, sc.MaxChars).Scan(&sc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// GetScript returns the script with the given ID, or ErrNotFound. IDs that
// are not UUIDs cannot exist and also yield ErrNotFound.
func (s *Store) GetScript(ctx context.Context, id string) (*Script, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	var sc Script
	err := s.db.QueryRow(ctx, `
		SELECT id::text, source_text, normalized_text, chunks, max_chars, created_at
		FROM scripts
		WHERE id = $1
	`, id).Scan(&sc.ID, &sc.SourceText, &sc.NormalizedText, &sc.Chunks, &sc.MaxChars, &sc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// DeleteScriptsOlderThan removes scripts and script events created before
// cutoff. It returns the IDs of the scripts removed.
func (s *Store) DeleteScriptsOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `DELETE FROM scripts WHERE created_at < $1 RETURNING id::text`, cutoff)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM script_events WHERE created_at < $1`, cutoff); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListScriptEvents retrieves events for a specific script
func (s *Store) ListScriptEvents(ctx context.Context, scriptID string, limit int) ([]ScriptEvent, error) {
	if _, err := uuid.Parse(scriptID); err != nil {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, script_id::text, event_type, event_data, created_at
		FROM script_events
		WHERE script_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`, scriptID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ScriptEvent
	for rows.Next() {
		var e ScriptEvent
		var eventData []byte
		if err := rows.Scan(&e.ID, &e.ScriptID, &e.EventType, &eventData, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.EventData = json.RawMessage(eventData)
		events = append(events, e)
	}
	return events, rows.Err()
}
