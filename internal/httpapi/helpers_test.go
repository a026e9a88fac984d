package httpapi

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lukasbauer/speakable/internal/narration"
	"github.com/lukasbauer/speakable/internal/store"
)

const (
	testSecret = "test-secret-key"
	testAPIKey = "sk-test-123"
)

// memStore is an in-memory ScriptStore.
type memStore struct {
	mu      sync.Mutex
	scripts map[string]store.Script
	events  []store.ScriptEvent
	fail    error
}

func newMemStore() *memStore {
	return &memStore{scripts: make(map[string]store.Script)}
}

func (m *memStore) CreateScript(_ context.Context, sc store.Script) (*store.Script, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sc.ID = uuid.NewString()
	sc.CreatedAt = time.Now().UTC()
	m.scripts[sc.ID] = sc
	return &sc, nil
}

func (m *memStore) GetScript(_ context.Context, id string) (*store.Script, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.scripts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sc, nil
}

func (m *memStore) ListScriptEvents(_ context.Context, scriptID string, limit int) ([]store.ScriptEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.ScriptEvent
	for _, e := range m.events {
		if e.ScriptID == scriptID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeTTS returns "audio:<text>" for every chunk, or err when set.
type fakeTTS struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeTTS) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio:" + text), nil
}

func (f *fakeTTS) SynthesizeStream(ctx context.Context, text string) (<-chan []byte, error) {
	audio, err := f.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	ch := make(chan []byte, 1)
	ch <- audio
	close(ch)
	return ch, nil
}

var errTTSDown = errors.New("tts down")

// newTestRouter builds a Router. A nil scripts leaves storage unconfigured
// and a nil gen leaves speech synthesis unconfigured.
func newTestRouter(t *testing.T, scripts ScriptStore, gen *fakeTTS) (*Router, http.Handler) {
	t.Helper()
	var nr *narration.Narrator
	if gen != nil {
		nr = narration.New(nil, gen, 0)
	} else {
		nr = narration.New(nil, nil, 0)
	}
	r := &Router{
		cfg: RouterConfig{
			JWTSecret: testSecret,
			JWTExpiry: time.Hour,
			APIKeys:   []string{"sk-other", testAPIKey},
		},
		logger:   log.New(io.Discard, "", 0),
		narrator: nr,
		scripts:  scripts,
		mux:      http.NewServeMux(),
	}
	r.routes()
	return r, withSentryRecovery(withCORS(r.mux))
}

func testToken(t *testing.T, r *Router) string {
	t.Helper()
	token, _, err := r.generateJWT(keyID(testAPIKey))
	if err != nil {
		t.Fatalf("generateJWT failed: %v", err)
	}
	return token
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}
