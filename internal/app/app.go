package app

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lukasbauer/speakable/internal/eventlog"
	"github.com/lukasbauer/speakable/internal/httpapi"
	"github.com/lukasbauer/speakable/internal/jobs"
	"github.com/lukasbauer/speakable/internal/narration"
	"github.com/lukasbauer/speakable/internal/normalize"
	"github.com/lukasbauer/speakable/internal/notifications"
	"github.com/lukasbauer/speakable/internal/store"
	"github.com/lukasbauer/speakable/internal/tts"
)

type App struct {
	cfg      Config
	logger   *log.Logger
	db       *pgxpool.Pool
	store    *store.Store
	eventLog *eventlog.Logger
	discord  *notifications.Discord
	narrator *narration.Narrator
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	a := &App{cfg: cfg, logger: logger}

	if cfg.DatabaseURL != "" {
		if err := a.connect(); err != nil {
			return nil, err
		}
	} else {
		logger.Printf("app: DATABASE_URL not set, script storage disabled")
	}
	a.eventLog = eventlog.New(a.db)
	a.discord = notifications.NewDiscord(cfg.DiscordWebhookURL, logger)

	var gen tts.Client
	if cfg.ElevenLabsAPIKey != "" {
		gen = tts.NewElevenLabsClient(tts.ElevenLabsConfig{
			APIKey:       cfg.ElevenLabsAPIKey,
			VoiceID:      cfg.TTSVoiceID,
			ModelID:      cfg.TTSModelID,
			OutputFormat: cfg.TTSOutputFormat,
			Stability:    cfg.TTSStability,
			Similarity:   cfg.TTSSimilarity,
			HTTPClient:   newTTSHTTPClient(),
		})
	} else {
		logger.Printf("app: ELEVENLABS_API_KEY not set, speech synthesis disabled")
	}

	n := normalize.New(normalize.Config{Compose: cfg.NormalizeNFC})
	a.narrator = narration.New(n, gen, cfg.MaxChars)

	return a, nil
}

func (a *App) connect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return err
	}

	s := store.New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return err
	}

	a.db = db
	a.store = s
	return nil
}

// newTTSHTTPClient returns a client with connection pooling. Chunks of one
// script are synthesized back to back against a single host, so idle
// connections are kept alive between requests.
func newTTSHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		JWTSecret: a.cfg.JWTSecret,
		JWTExpiry: a.cfg.JWTExpiry,
		APIKeys:   a.cfg.APIKeys,
	}

	var scripts httpapi.ScriptStore
	if a.store != nil {
		scripts = a.store
	}
	return httpapi.NewRouter(routerCfg, a.logger, a.narrator, scripts, a.eventLog)
}

// RetentionJob returns the expired-script sweeper, or nil without a database.
func (a *App) RetentionJob() *jobs.RetentionJob {
	if a.store == nil {
		return nil
	}
	return jobs.NewRetentionJob(a.store, a.eventLog, a.discord, a.logger, a.cfg.ScriptRetention, a.cfg.RetentionSweep)
}

func (a *App) Close() error {
	if a.db != nil {
		a.db.Close()
	}
	return nil
}
