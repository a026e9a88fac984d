package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewElevenLabsClient_Defaults(t *testing.T) {
	client := NewElevenLabsClient(ElevenLabsConfig{
		APIKey:     "test-key",
		Stability:  -1,
		Similarity: -1,
	})

	if client.voiceID != defaultVoiceID {
		t.Errorf("voiceID = %q, want %q", client.voiceID, defaultVoiceID)
	}
	if client.modelID != defaultModelID {
		t.Errorf("modelID = %q, want %q", client.modelID, defaultModelID)
	}
	if client.outputFormat != defaultOutputFormat {
		t.Errorf("outputFormat = %q, want %q", client.outputFormat, defaultOutputFormat)
	}
	if client.baseURL != defaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, defaultBaseURL)
	}
	if client.stability != 0.5 {
		t.Errorf("stability = %f, want %f", client.stability, 0.5)
	}
	if client.similarity != 0.75 {
		t.Errorf("similarity = %f, want %f", client.similarity, 0.75)
	}
	if client.httpClient == nil {
		t.Error("httpClient is nil")
	}
}

func TestNewElevenLabsClient_VoiceSettings(t *testing.T) {
	tests := []struct {
		name           string
		stability      float64
		similarity     float64
		wantStability  float64
		wantSimilarity float64
	}{
		{"custom stability", 0.8, -1, 0.8, 0.75},
		{"custom similarity", -1, 0.9, 0.5, 0.9},
		{"custom both", 0.3, 0.6, 0.3, 0.6},
		{"zero is valid", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewElevenLabsClient(ElevenLabsConfig{
				APIKey:     "test-key",
				Stability:  tt.stability,
				Similarity: tt.similarity,
			})
			if client.stability != tt.wantStability {
				t.Errorf("stability = %f, want %f", client.stability, tt.wantStability)
			}
			if client.similarity != tt.wantSimilarity {
				t.Errorf("similarity = %f, want %f", client.similarity, tt.wantSimilarity)
			}
		})
	}
}

func newTestServer(t *testing.T, audio []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("xi-api-key = %q, want %q", got, "test-key")
		}
		if got := r.URL.Query().Get("output_format"); got != "pcm_16000" {
			t.Errorf("output_format = %q, want %q", got, "pcm_16000")
		}

		var req ttsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text == "" {
			http.Error(w, `{"detail": "empty text"}`, http.StatusUnprocessableEntity)
			return
		}
		if req.ModelID != "test-model" || req.VoiceSettings.Stability != 0.4 {
			t.Errorf("request = %+v", req)
		}
		w.Write(audio)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(srv *httptest.Server) *ElevenLabsClient {
	return NewElevenLabsClient(ElevenLabsConfig{
		APIKey:       "test-key",
		VoiceID:      "voice",
		ModelID:      "test-model",
		OutputFormat: "pcm_16000",
		Stability:    0.4,
		Similarity:   -1,
		BaseURL:      srv.URL + "/",
		HTTPClient:   srv.Client(),
	})
}

func TestSynthesize(t *testing.T) {
	audio := []byte("RIFF-fake-audio")
	client := testClient(newTestServer(t, audio))

	got, err := client.Synthesize(context.Background(), "x union y")
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Errorf("Synthesize = %q, want %q", got, audio)
	}
}

func TestSynthesizeAPIError(t *testing.T) {
	client := testClient(newTestServer(t, nil))

	_, err := client.Synthesize(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for rejected request")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error = %q, want the HTTP status", err)
	}
}

func TestSynthesizeStream(t *testing.T) {
	audio := bytes.Repeat([]byte{0x7f}, streamReadSize*3+17)
	client := testClient(newTestServer(t, audio))

	ch, err := client.SynthesizeStream(context.Background(), "x to the power of two")
	if err != nil {
		t.Fatalf("SynthesizeStream error: %v", err)
	}
	var got []byte
	for chunk := range ch {
		got = append(got, chunk...)
	}
	if !bytes.Equal(got, audio) {
		t.Errorf("streamed %d bytes, want %d", len(got), len(audio))
	}
}
