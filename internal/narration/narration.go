// Package narration drives text through the normalizer, the chunker and a
// speech generator, in that order.
package narration

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/lukasbauer/speakable/internal/chunking"
	"github.com/lukasbauer/speakable/internal/normalize"
	"github.com/lukasbauer/speakable/internal/tts"
)

// Script is text that has been normalized and cut into chunks, ready to be
// spoken.
type Script struct {
	SourceText     string   `json:"source_text"`
	NormalizedText string   `json:"normalized_text"`
	Chunks         []string `json:"chunks"`
	MaxChars       int      `json:"max_chars"`
}

// Characters returns the number of runes sent to the generator.
func (s Script) Characters() int {
	total := 0
	for _, c := range s.Chunks {
		total += utf8.RuneCountInString(c)
	}
	return total
}

// Segment is the audio for one chunk.
type Segment struct {
	Index int
	Text  string
	Audio []byte
}

// Narrator prepares and speaks scripts.
type Narrator struct {
	normalizer *normalize.Normalizer
	generator  tts.Client
	maxChars   int
}

// New creates a Narrator. A nil normalizer selects normalize.Default and a
// non-positive maxChars selects chunking.DefaultMaxChars. gen may be nil if
// the Narrator is only used to prepare scripts.
func New(n *normalize.Normalizer, gen tts.Client, maxChars int) *Narrator {
	if n == nil {
		n = normalize.Default()
	}
	if maxChars <= 0 {
		maxChars = chunking.DefaultMaxChars
	}
	return &Narrator{normalizer: n, generator: gen, maxChars: maxChars}
}

// MaxChars returns the default chunk length.
func (nr *Narrator) MaxChars() int { return nr.maxChars }

// Normalizer returns the normalizer used by Prepare.
func (nr *Narrator) Normalizer() *normalize.Normalizer { return nr.normalizer }

// CanSpeak reports whether a speech generator is configured.
func (nr *Narrator) CanSpeak() bool { return nr.generator != nil }

// Prepare normalizes text and splits it into chunks of at most maxChars
// runes. A non-positive maxChars selects the Narrator's default.
func (nr *Narrator) Prepare(text string, maxChars int) (Script, error) {
	if maxChars <= 0 {
		maxChars = nr.maxChars
	}
	normalized, err := nr.normalizer.Normalize(text)
	if err != nil {
		return Script{}, err
	}
	chunks, err := chunking.Split(normalized, maxChars)
	if err != nil {
		return Script{}, err
	}
	return Script{
		SourceText:     text,
		NormalizedText: normalized,
		Chunks:         chunks,
		MaxChars:       maxChars,
	}, nil
}

// Speak synthesizes the chunks of s one at a time, in order, and hands each
// result to fn before requesting the next. It stops at the first generator
// error, fn error or context cancellation.
func (nr *Narrator) Speak(ctx context.Context, s Script, fn func(Segment) error) error {
	if nr.generator == nil {
		return fmt.Errorf("narration: no speech generator configured")
	}
	for i, chunk := range s.Chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		audio, err := nr.generator.Synthesize(ctx, chunk)
		if err != nil {
			return fmt.Errorf("narration: chunk %d: %w", i, err)
		}
		if err := fn(Segment{Index: i, Text: chunk, Audio: audio}); err != nil {
			return err
		}
	}
	return nil
}
