// Package costs estimates what speaking a script will cost.
package costs

import (
	"os"
	"strconv"
	"unicode/utf8"
)

// Pricing constants (in cents per unit for precision). They can be overridden
// via environment variables.
var (
	// ElevenLabsCentsPerThousandChars is the cost per 1K characters for ElevenLabs TTS.
	// Default: $0.18/1K chars = 18 cents/1K chars
	ElevenLabsCentsPerThousandChars = getEnvFloat("COST_ELEVENLABS_CENTS_PER_1K_CHARS", 18.0)
)

// SynthesisCost is the estimated cost of synthesizing a set of chunks.
type SynthesisCost struct {
	Chunks       int `json:"chunks"`
	Characters   int `json:"characters"`
	TTSCostCents int `json:"tts_cost_cents"`
}

// EstimateSynthesis computes the generator cost for chunks. Characters are
// counted in runes, the way the generator bills them.
func EstimateSynthesis(chunks []string) SynthesisCost {
	chars := 0
	for _, c := range chunks {
		chars += utf8.RuneCountInString(c)
	}
	return SynthesisCost{
		Chunks:       len(chunks),
		Characters:   chars,
		TTSCostCents: CharacterCostCents(chars),
	}
}

// CharacterCostCents returns the TTS cost in cents for chars characters.
func CharacterCostCents(chars int) int {
	return roundToInt((float64(chars) / 1000.0) * ElevenLabsCentsPerThousandChars)
}

// roundToInt rounds a float to the nearest integer.
func roundToInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

// getEnvFloat returns an environment variable as float64, or the default if not set.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
