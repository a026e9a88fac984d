package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/lukasbauer/speakable/internal/eventlog"
	"github.com/lukasbauer/speakable/internal/narration"
	"github.com/lukasbauer/speakable/internal/store"
)

// maxRequestBytes bounds JSON request bodies and websocket messages.
const maxRequestBytes = 1 << 20

// maxChunkChars is the largest max_chars a client may ask for.
const maxChunkChars = 5000

type RouterConfig struct {
	// JWT Authentication
	JWTSecret string
	JWTExpiry time.Duration

	// API keys exchanged for JWTs at /auth/token
	APIKeys []string
}

// ScriptStore persists prepared scripts. It is nil when no database is
// configured, in which case script endpoints answer 503.
type ScriptStore interface {
	CreateScript(ctx context.Context, sc store.Script) (*store.Script, error)
	GetScript(ctx context.Context, id string) (*store.Script, error)
	ListScriptEvents(ctx context.Context, scriptID string, limit int) ([]store.ScriptEvent, error)
}

type Router struct {
	cfg      RouterConfig
	logger   *log.Logger
	narrator *narration.Narrator
	scripts  ScriptStore
	eventLog *eventlog.Logger
	mux      *http.ServeMux
}

func NewRouter(cfg RouterConfig, logger *log.Logger, narrator *narration.Narrator, scripts ScriptStore, eventLog *eventlog.Logger) http.Handler {
	r := &Router{
		cfg:      cfg,
		logger:   logger,
		narrator: narrator,
		scripts:  scripts,
		eventLog: eventLog,
		mux:      http.NewServeMux(),
	}

	r.routes()
	return withSentryRecovery(withCORS(r.mux))
}

func (r *Router) routes() {
	// Health check
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)

	// Stateless text endpoints (public)
	r.mux.HandleFunc("POST /api/normalize", r.handleNormalize)
	r.mux.HandleFunc("POST /api/chunk", r.handleChunk)

	// Auth endpoints (public, API key checked)
	r.mux.HandleFunc("POST /auth/token", r.handleIssueToken)

	// Protected API endpoints
	r.mux.HandleFunc("POST /api/scripts", r.withAuth(r.handleCreateScript))
	r.mux.HandleFunc("GET /api/scripts/{id}", r.withAuth(r.handleGetScript))
	r.mux.HandleFunc("GET /api/scripts/{id}/events", r.withAuth(r.handleGetScriptEvents))

	// Speech streaming (protected)
	r.mux.HandleFunc("GET /ws/speak", r.withAuth(r.handleSpeakWS))
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, req *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBytes)).Decode(v)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-API-Key")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
