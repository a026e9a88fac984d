package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lukasbauer/speakable/internal/costs"
	"github.com/lukasbauer/speakable/internal/eventlog"
	"github.com/lukasbauer/speakable/internal/narration"
	"github.com/lukasbauer/speakable/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// errConnWrite marks failures to write to the client; the session ends.
var errConnWrite = errors.New("websocket write failed")

// speakRequest is one client message: either raw text or a stored script.
type speakRequest struct {
	Text     string `json:"text"`
	ScriptID string `json:"script_id"`
	MaxChars *int   `json:"max_chars"`
}

// speakEvent is a JSON message to the client. Each "chunk" event is followed
// by one binary message carrying that chunk's audio.
type speakEvent struct {
	Type     string               `json:"type"` // script, chunk, done, error
	ScriptID string               `json:"script_id,omitempty"`
	Index    *int                 `json:"index,omitempty"`
	Text     string               `json:"text,omitempty"`
	Bytes    int                  `json:"bytes,omitempty"`
	Cost     *costs.SynthesisCost `json:"cost,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// speakSession serves one websocket connection. Requests are handled one at
// a time; all writes happen on the session goroutine.
type speakSession struct {
	conn   *websocket.Conn
	router *Router
	req    *http.Request
	logger *log.Logger
	keyID  string
}

func (r *Router) handleSpeakWS(w http.ResponseWriter, req *http.Request) {
	if !r.narrator.CanSpeak() {
		r.logger.Printf("speak_ws: no speech generator configured")
		http.Error(w, `{"error": "speech synthesis not configured"}`, http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("speak_ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)

	s := &speakSession{
		conn:   conn,
		router: r,
		req:    req,
		logger: r.logger,
		keyID:  authKeyID(req),
	}
	s.run(req.Context())
}

func (s *speakSession) run(ctx context.Context) {
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("speak_ws: connection closed for key %s", s.keyID)
			} else {
				s.logger.Printf("speak_ws: read error for key %s: %v", s.keyID, err)
			}
			return
		}

		var sr speakRequest
		if err := json.Unmarshal(msg, &sr); err != nil {
			if s.sendError("invalid message") != nil {
				return
			}
			continue
		}

		if err := s.speak(ctx, sr); err != nil {
			s.logger.Printf("speak_ws: %v", err)
			return
		}
	}
}

// speak handles one request. It returns an error only when the connection
// is no longer usable.
func (s *speakSession) speak(ctx context.Context, sr speakRequest) error {
	script, id, err := s.resolve(ctx, sr)
	if err != nil {
		return s.sendError(err.Error())
	}

	cost := costs.EstimateSynthesis(script.Chunks)
	if err := s.send(speakEvent{Type: "script", ScriptID: id, Cost: &cost}); err != nil {
		return err
	}

	events := s.router.eventLog
	start := time.Now()
	err = s.router.narrator.Speak(ctx, script, func(seg narration.Segment) error {
		idx := seg.Index
		if err := s.send(speakEvent{Type: "chunk", ScriptID: id, Index: &idx, Text: seg.Text, Bytes: len(seg.Audio)}); err != nil {
			return err
		}
		if err := s.write(websocket.BinaryMessage, seg.Audio); err != nil {
			return err
		}
		events.LogAsync(id, eventlog.EventChunkSynthesized, map[string]any{
			"index":       seg.Index,
			"text_length": len([]rune(seg.Text)),
			"audio_bytes": len(seg.Audio),
		})
		return nil
	})
	if errors.Is(err, errConnWrite) {
		return err
	}
	if err != nil {
		s.logger.Printf("speak_ws: synthesis failed for script %s: %v", id, err)
		captureError(s.req, err, "speak_ws: synthesis failed")
		events.LogAsync(id, eventlog.EventSynthesisFailed, map[string]any{"error": err.Error()})
		return s.sendError("synthesis failed")
	}

	events.LogAsync(id, eventlog.EventSynthesisCompleted, map[string]any{
		"chunks":      cost.Chunks,
		"characters":  cost.Characters,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return s.send(speakEvent{Type: "done", ScriptID: id, Cost: &cost})
}

// resolve turns a request into a script and the ID its events are logged
// under. Raw text gets a fresh ID; it is not persisted.
func (s *speakSession) resolve(ctx context.Context, sr speakRequest) (narration.Script, string, error) {
	if sr.ScriptID != "" {
		if s.router.scripts == nil {
			return narration.Script{}, "", errors.New("script storage not configured")
		}
		sc, err := s.router.scripts.GetScript(ctx, sr.ScriptID)
		if errors.Is(err, store.ErrNotFound) {
			return narration.Script{}, "", errors.New("script not found")
		}
		if err != nil {
			s.logger.Printf("speak_ws: failed to load script %s: %v", sr.ScriptID, err)
			return narration.Script{}, "", errors.New("failed to load script")
		}
		return narration.Script{
			SourceText:     sc.SourceText,
			NormalizedText: sc.NormalizedText,
			Chunks:         sc.Chunks,
			MaxChars:       sc.MaxChars,
		}, sc.ID, nil
	}

	if sr.Text == "" {
		return narration.Script{}, "", errors.New("text or script_id is required")
	}
	maxChars, err := s.router.resolveMaxChars(sr.MaxChars)
	if err != nil {
		return narration.Script{}, "", err
	}

	id := uuid.NewString()
	script, err := s.router.narrator.Prepare(sr.Text, maxChars)
	if err != nil {
		s.router.eventLog.LogAsync(id, eventlog.EventNormalizeFailed, map[string]any{"error": err.Error()})
		return narration.Script{}, "", err
	}
	s.router.eventLog.LogAsync(id, eventlog.EventScriptPrepared, map[string]any{
		"key_id":     s.keyID,
		"chunks":     len(script.Chunks),
		"characters": script.Characters(),
		"max_chars":  script.MaxChars,
	})
	return script, id, nil
}

func (s *speakSession) send(ev speakEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	return s.write(websocket.TextMessage, data)
}

func (s *speakSession) sendError(msg string) error {
	return s.send(speakEvent{Type: "error", Error: msg})
}

func (s *speakSession) write(messageType int, data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := s.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("%w: %v", errConnWrite, err)
	}
	return nil
}
