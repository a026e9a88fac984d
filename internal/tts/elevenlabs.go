package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://api.elevenlabs.io/v1/text-to-speech"
	defaultVoiceID      = "21m00Tcm4TlvDq8ikWAM" // Rachel
	defaultModelID      = "eleven_multilingual_v2"
	defaultOutputFormat = "mp3_44100_128"
	defaultStability    = 0.5
	defaultSimilarity   = 0.75

	streamReadSize = 4096
)

// ElevenLabsClient implements Client using the ElevenLabs text-to-speech API.
type ElevenLabsClient struct {
	apiKey       string
	baseURL      string
	voiceID      string
	modelID      string
	outputFormat string
	stability    float64
	similarity   float64
	httpClient   *http.Client
}

// ElevenLabsConfig holds configuration for the ElevenLabs client.
type ElevenLabsConfig struct {
	APIKey       string
	VoiceID      string
	ModelID      string
	OutputFormat string  // e.g. "mp3_44100_128", "pcm_16000"
	Stability    float64 // 0.0-1.0, negative selects the default
	Similarity   float64 // 0.0-1.0, negative selects the default
	BaseURL      string
	HTTPClient   *http.Client
}

// NewElevenLabsClient creates a new ElevenLabs client.
func NewElevenLabsClient(cfg ElevenLabsConfig) *ElevenLabsClient {
	c := &ElevenLabsClient{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		voiceID:      cfg.VoiceID,
		modelID:      cfg.ModelID,
		outputFormat: cfg.OutputFormat,
		stability:    cfg.Stability,
		similarity:   cfg.Similarity,
		httpClient:   cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.voiceID == "" {
		c.voiceID = defaultVoiceID
	}
	if c.modelID == "" {
		c.modelID = defaultModelID
	}
	if c.outputFormat == "" {
		c.outputFormat = defaultOutputFormat
	}
	// 0.0 is a valid setting, so only negative values select the defaults.
	if c.stability < 0 {
		c.stability = defaultStability
	}
	if c.similarity < 0 {
		c.similarity = defaultSimilarity
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return c
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to speech and returns the encoded audio.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.post(ctx, "", text)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return audio, nil
}

// SynthesizeStream converts text to speech and streams audio chunks.
func (c *ElevenLabsClient) SynthesizeStream(ctx context.Context, text string) (<-chan []byte, error) {
	resp, err := c.post(ctx, "/stream", text)
	if err != nil {
		return nil, err
	}

	ch := make(chan []byte, 16)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		buf := make([]byte, streamReadSize)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case <-ctx.Done():
					return
				case ch <- chunk:
				}
			}
			if err != nil {
				return
			}
		}
	}()

	return ch, nil
}

func (c *ElevenLabsClient) post(ctx context.Context, suffix, text string) (*http.Response, error) {
	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: c.modelID,
		VoiceSettings: voiceSettings{
			Stability:       c.stability,
			SimilarityBoost: c.similarity,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s%s?output_format=%s",
		c.baseURL, url.PathEscape(c.voiceID), suffix, url.QueryEscape(c.outputFormat))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("ElevenLabs API error: %s - %s", resp.Status, string(respBody))
	}
	return resp, nil
}
