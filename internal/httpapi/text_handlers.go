package httpapi

import (
	"fmt"
	"net/http"

	"github.com/lukasbauer/speakable/internal/chunking"
	"github.com/lukasbauer/speakable/internal/normalize"
)

type normalizeRequest struct {
	Text  string `json:"text"`
	Trace bool   `json:"trace"`
}

type normalizeResponse struct {
	Normalized string                  `json:"normalized"`
	Stages     []normalize.StageResult `json:"stages,omitempty"`
}

func (r *Router) handleNormalize(w http.ResponseWriter, req *http.Request) {
	var body normalizeRequest
	if err := decodeJSON(w, req, &body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if body.Text == "" {
		http.Error(w, `{"error": "text is required"}`, http.StatusBadRequest)
		return
	}

	if !body.Trace {
		out, err := r.narrator.Normalizer().Normalize(body.Text)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, normalizeResponse{Normalized: out})
		return
	}

	stages, err := r.narrator.Normalizer().Trace(body.Text)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	resp := normalizeResponse{Stages: stages}
	if len(stages) > 0 {
		resp.Normalized = stages[len(stages)-1].Text
	}
	writeJSON(w, http.StatusOK, resp)
}

type chunkRequest struct {
	Text     string `json:"text"`
	MaxChars *int   `json:"max_chars"`
}

type chunkResponse struct {
	Chunks   []string `json:"chunks"`
	Count    int      `json:"count"`
	MaxChars int      `json:"max_chars"`
}

func (r *Router) handleChunk(w http.ResponseWriter, req *http.Request) {
	var body chunkRequest
	if err := decodeJSON(w, req, &body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	maxChars, err := r.resolveMaxChars(body.MaxChars)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chunks, err := chunking.Split(body.Text, maxChars)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if chunks == nil {
		chunks = []string{}
	}
	writeJSON(w, http.StatusOK, chunkResponse{Chunks: chunks, Count: len(chunks), MaxChars: maxChars})
}

var errMaxCharsRange = fmt.Errorf("max_chars must be between 1 and %d", maxChunkChars)

// resolveMaxChars applies the narrator default to an absent max_chars and
// rejects values outside [1, maxChunkChars].
func (r *Router) resolveMaxChars(v *int) (int, error) {
	if v == nil {
		return r.narrator.MaxChars(), nil
	}
	if *v > maxChunkChars {
		return 0, errMaxCharsRange
	}
	if *v <= 0 {
		return 0, fmt.Errorf("%w: %w", errMaxCharsRange, chunking.ErrInvalidMaxChars)
	}
	return *v, nil
}
