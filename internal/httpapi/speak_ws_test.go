package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lukasbauer/speakable/internal/store"
)

func dialSpeak(t *testing.T, h http.Handler, token string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/speak"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial failed (status %d): %v", status, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) speakEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", mt)
	}
	var ev speakEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode event %q: %v", data, err)
	}
	return ev
}

func readAudio(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Fatalf("message type = %d, want binary", mt)
	}
	return data
}

func TestSpeakWSStreamsChunksInOrder(t *testing.T) {
	gen := &fakeTTS{}
	r, h := newTestRouter(t, nil, gen)
	conn := dialSpeak(t, h, testToken(t, r))

	if err := conn.WriteJSON(map[string]any{"text": "A ∪ B. Then x^2.", "max_chars": 12}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Type != "script" || ev.ScriptID == "" || ev.Cost == nil {
		t.Fatalf("first event = %+v, want script with id and cost", ev)
	}
	wantChunks := []string{"A union B.", "Then x to", "the power of", "two."}
	if ev.Cost.Chunks != len(wantChunks) {
		t.Fatalf("cost.chunks = %d, want %d", ev.Cost.Chunks, len(wantChunks))
	}

	for i, want := range wantChunks {
		ev := readEvent(t, conn)
		if ev.Type != "chunk" || ev.Index == nil || *ev.Index != i || ev.Text != want {
			t.Fatalf("chunk event %d = %+v, want text %q", i, ev, want)
		}
		if audio := readAudio(t, conn); string(audio) != "audio:"+want {
			t.Errorf("audio %d = %q, want %q", i, audio, "audio:"+want)
		}
	}

	if ev := readEvent(t, conn); ev.Type != "done" {
		t.Errorf("final event = %+v, want done", ev)
	}
}

func TestSpeakWSStoredScript(t *testing.T) {
	ms := newMemStore()
	sc, _ := ms.CreateScript(context.Background(), store.Script{
		SourceText:     "A'",
		NormalizedText: "A complement",
		Chunks:         []string{"A complement"},
		MaxChars:       250,
	})
	gen := &fakeTTS{}
	r, h := newTestRouter(t, ms, gen)
	conn := dialSpeak(t, h, testToken(t, r))

	if err := conn.WriteJSON(map[string]any{"script_id": sc.ID}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if ev := readEvent(t, conn); ev.Type != "script" || ev.ScriptID != sc.ID {
		t.Fatalf("first event = %+v, want script %s", ev, sc.ID)
	}
	if ev := readEvent(t, conn); ev.Type != "chunk" || ev.Text != "A complement" {
		t.Fatalf("chunk event = %+v", ev)
	}
	readAudio(t, conn)
	if ev := readEvent(t, conn); ev.Type != "done" {
		t.Errorf("final event = %+v, want done", ev)
	}

	// Unknown scripts report an error and keep the connection open.
	if err := conn.WriteJSON(map[string]any{"script_id": "missing"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if ev := readEvent(t, conn); ev.Type != "error" || ev.Error != "script not found" {
		t.Errorf("event = %+v, want script not found error", ev)
	}
}

func TestSpeakWSErrors(t *testing.T) {
	gen := &fakeTTS{err: errTTSDown}
	r, h := newTestRouter(t, nil, gen)
	conn := dialSpeak(t, h, testToken(t, r))

	tests := []struct {
		name    string
		message string
	}{
		{"invalid json", `{"text":`},
		{"missing text", `{}`},
		{"bad max chars", `{"text": "hi", "max_chars": -1}`},
		{"script storage missing", `{"script_id": "abc"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.message)); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			if ev := readEvent(t, conn); ev.Type != "error" || ev.Error == "" {
				t.Errorf("event = %+v, want error", ev)
			}
		})
	}

	t.Run("generator failure", func(t *testing.T) {
		if err := conn.WriteJSON(map[string]any{"text": "Hello there."}); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if ev := readEvent(t, conn); ev.Type != "script" {
			t.Fatalf("first event = %+v, want script", ev)
		}
		if ev := readEvent(t, conn); ev.Type != "error" || ev.Error != "synthesis failed" {
			t.Errorf("event = %+v, want synthesis failed", ev)
		}
	})
}

func TestSpeakWSWithoutGenerator(t *testing.T) {
	r, h := newTestRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws/speak", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, r))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
