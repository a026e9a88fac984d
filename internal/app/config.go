package app

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string // optional; script storage is disabled without it
	SentryDSN   string
	Environment string

	// Normalizer and chunker
	MaxChars     int  // default chunk length
	NormalizeNFC bool // compose decomposed accents before normalizing

	// Speech generator (ElevenLabs)
	ElevenLabsAPIKey string
	TTSVoiceID       string
	TTSModelID       string
	TTSOutputFormat  string
	TTSStability     float64 // ElevenLabs voice stability (0.0-1.0)
	TTSSimilarity    float64 // ElevenLabs voice similarity boost (0.0-1.0)

	// JWT Authentication
	JWTSecret string
	JWTExpiry time.Duration

	// API keys exchanged for JWTs
	APIKeys []string

	// Prepared script retention
	ScriptRetention time.Duration
	RetentionSweep  time.Duration

	// Operational alerts
	DiscordWebhookURL string
}

func LoadConfigFromEnv() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		SentryDSN:   getenv("SENTRY_DSN", ""),
		Environment: getenv("ENVIRONMENT", "development"),

		// Normalizer and chunker
		MaxChars:     getenvIntClamped("MAX_CHARS", 250, 20, 5000),
		NormalizeNFC: getenvBool("NORMALIZE_NFC", false),

		// Speech generator
		ElevenLabsAPIKey: getenv("ELEVENLABS_API_KEY", ""),
		TTSVoiceID:       getenv("TTS_VOICE_ID", ""), // ElevenLabs voice ID
		TTSModelID:       getenv("TTS_MODEL_ID", ""),
		TTSOutputFormat:  getenv("TTS_OUTPUT_FORMAT", ""),
		TTSStability:     getenvFloatClamped("TTS_STABILITY", 0.5, 0.0, 1.0),
		TTSSimilarity:    getenvFloatClamped("TTS_SIMILARITY", 0.75, 0.0, 1.0),

		// JWT Authentication
		JWTSecret: os.Getenv("JWT_SECRET"), // Required - no fallback for security
		JWTExpiry: getenvDuration("JWT_EXPIRY", 24*time.Hour),

		APIKeys: parseList(os.Getenv("API_KEYS")),

		ScriptRetention: getenvDuration("SCRIPT_RETENTION", 24*time.Hour),
		RetentionSweep:  getenvDuration("RETENTION_SWEEP_INTERVAL", time.Hour),

		DiscordWebhookURL: getenv("DISCORD_WEBHOOK_URL", ""),
	}
}

// parseList splits a comma-separated value, dropping blanks.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntClamped(k string, def, min, max int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func getenvFloatClamped(k string, def, min, max float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil || math.IsNaN(v) {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func getenvBool(k string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

// getenvDuration parses a Go duration ("90m", "24h"); non-positive or
// invalid values fall back to def.
func getenvDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
