// Package eventlog records what happened to a script on its way to audio:
// when it was prepared, each chunk the generator spoke, and how the run
// ended. Rows land in script_events and are read back through
// GET /api/scripts/{id}/events.
package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventType names one step in a script's life.
type EventType string

const (
	// EventScriptPrepared: text was normalized and chunked. Data carries the
	// chunk count, rune count and max_chars used.
	EventScriptPrepared EventType = "script_prepared"
	// EventNormalizeFailed: the normalizer rejected the text, typically a
	// digit run too long to spell.
	EventNormalizeFailed EventType = "normalize_failed"
	// EventChunkSynthesized: one chunk's audio was sent to the client.
	EventChunkSynthesized EventType = "chunk_synthesized"
	// EventSynthesisFailed: the generator failed and the remaining chunks
	// were not spoken.
	EventSynthesisFailed EventType = "synthesis_failed"
	// EventSynthesisCompleted: every chunk was spoken, in order.
	EventSynthesisCompleted EventType = "synthesis_completed"
	// EventScriptExpired: the retention sweep deleted the script. Its events
	// outlive it until they age out in the same sweep, so this is usually
	// the last row seen for an ID.
	EventScriptExpired EventType = "script_expired"
)

const insertEvent = `
	INSERT INTO script_events (script_id, event_type, event_data)
	VALUES ($1, $2, $3)
`

// asyncTimeout bounds one background insert.
const asyncTimeout = 2 * time.Second

// Logger writes script events. A nil Logger, or one without a pool, drops
// every event, so callers never need to check whether storage is configured.
type Logger struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Logger {
	return &Logger{db: db}
}

func (l *Logger) enabled(scriptID string) bool {
	return l != nil && l.db != nil && scriptID != ""
}

// Log inserts one event and waits for the write.
func (l *Logger) Log(ctx context.Context, scriptID string, eventType EventType, data map[string]any) error {
	if !l.enabled(scriptID) {
		return nil
	}
	_, err := l.db.Exec(ctx, insertEvent, scriptID, string(eventType), encodeData(data))
	return err
}

// LogAsync inserts in the background; failures are dropped. The websocket
// session uses it per chunk so audio delivery never waits on the database.
func (l *Logger) LogAsync(scriptID string, eventType EventType, data map[string]any) {
	if !l.enabled(scriptID) {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		_ = l.Log(ctx, scriptID, eventType, data)
	}()
}

// encodeData renders event data as a JSON object. Values that cannot be
// encoded are replaced by the encoder's message so the event still lands.
func encodeData(data map[string]any) []byte {
	if len(data) == 0 {
		return []byte("{}")
	}
	b, err := json.Marshal(data)
	if err != nil {
		b, _ = json.Marshal(map[string]string{"encode_error": err.Error()})
	}
	return b
}
