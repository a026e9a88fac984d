package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/lukasbauer/speakable/internal/costs"
	"github.com/lukasbauer/speakable/internal/eventlog"
	"github.com/lukasbauer/speakable/internal/store"
)

type scriptRequest struct {
	Text     string `json:"text"`
	MaxChars *int   `json:"max_chars"`
}

type scriptResponse struct {
	Script *store.Script       `json:"script"`
	Cost   costs.SynthesisCost `json:"cost"`
}

func (r *Router) handleCreateScript(w http.ResponseWriter, req *http.Request) {
	if r.scripts == nil {
		http.Error(w, `{"error": "script storage not configured"}`, http.StatusServiceUnavailable)
		return
	}

	var body scriptRequest
	if err := decodeJSON(w, req, &body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if body.Text == "" {
		http.Error(w, `{"error": "text is required"}`, http.StatusBadRequest)
		return
	}
	maxChars, err := r.resolveMaxChars(body.MaxChars)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prepared, err := r.narrator.Prepare(body.Text, maxChars)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := r.scripts.CreateScript(req.Context(), store.Script{
		SourceText:     prepared.SourceText,
		NormalizedText: prepared.NormalizedText,
		Chunks:         prepared.Chunks,
		MaxChars:       prepared.MaxChars,
	})
	if err != nil {
		r.logger.Printf("scripts: failed to save script: %v", err)
		captureError(req, err, "scripts: failed to save script")
		http.Error(w, `{"error": "failed to save script"}`, http.StatusInternalServerError)
		return
	}

	cost := costs.EstimateSynthesis(saved.Chunks)
	r.eventLog.LogAsync(saved.ID, eventlog.EventScriptPrepared, map[string]any{
		"key_id":     authKeyID(req),
		"chunks":     cost.Chunks,
		"characters": cost.Characters,
		"max_chars":  saved.MaxChars,
	})

	writeJSON(w, http.StatusCreated, scriptResponse{Script: saved, Cost: cost})
}

func (r *Router) handleGetScript(w http.ResponseWriter, req *http.Request) {
	if r.scripts == nil {
		http.Error(w, `{"error": "script storage not configured"}`, http.StatusServiceUnavailable)
		return
	}

	sc, err := r.scripts.GetScript(req.Context(), req.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error": "script not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		r.logger.Printf("scripts: failed to load script: %v", err)
		captureError(req, err, "scripts: failed to load script")
		http.Error(w, `{"error": "failed to load script"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, scriptResponse{Script: sc, Cost: costs.EstimateSynthesis(sc.Chunks)})
}

func (r *Router) handleGetScriptEvents(w http.ResponseWriter, req *http.Request) {
	if r.scripts == nil {
		http.Error(w, `{"error": "script storage not configured"}`, http.StatusServiceUnavailable)
		return
	}

	limit := 100
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			http.Error(w, `{"error": "limit must be between 1 and 1000"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := r.scripts.ListScriptEvents(req.Context(), req.PathValue("id"), limit)
	if err != nil {
		r.logger.Printf("scripts: failed to list events: %v", err)
		captureError(req, err, "scripts: failed to list events")
		http.Error(w, `{"error": "failed to list events"}`, http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []store.ScriptEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func authKeyID(req *http.Request) string {
	if c := getAuthClient(req.Context()); c != nil {
		return c.KeyID
	}
	return ""
}
