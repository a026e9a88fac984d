// Package tts talks to speech generators. The rest of the system only needs
// the Client interface; ElevenLabsClient is the production implementation.
package tts

import "context"

// Client turns one chunk of speakable text into audio.
type Client interface {
	// Synthesize returns the complete audio for text.
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// SynthesizeStream streams audio for text as it is produced. The channel
	// is closed when the audio ends or ctx is done.
	SynthesizeStream(ctx context.Context, text string) (<-chan []byte, error)
}
