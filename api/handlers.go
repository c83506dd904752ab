package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"

	"interestingness/domain/analysis"
	"interestingness/domain/core"
	"interestingness/domain/history"
	"interestingness/internal/errors"
	"interestingness/ports"
)

// recordedAgent adapts a submitted sample log into the agent collaborator
// the analysis contract expects.
type recordedAgent struct {
	id      core.AgentID
	history *history.InteractionHistory
}

func (a *recordedAgent) ID() core.AgentID                             { return a.id }
func (a *recordedAgent) RecordedHistory() *history.InteractionHistory { return a.history }

type createRunRequest struct {
	AgentID string           `json:"agent_id"`
	RunID   string           `json:"run_id,omitempty"`
	Samples []history.Sample `json:"samples"`
}

// snapshotMeta is a snapshot record without its envelope payload.
type snapshotMeta struct {
	ID          core.SnapshotID `json:"id"`
	RunID       core.RunID      `json:"run_id"`
	AgentID     core.AgentID    `json:"agent_id"`
	Kind        analysis.Kind   `json:"kind"`
	Schema      int             `json:"schema"`
	Fingerprint core.Hash       `json:"fingerprint"`
	CreatedAt   core.Timestamp  `json:"created_at"`
}

type diffResponse struct {
	Kind         analysis.Kind          `json:"kind"`
	ElementNames []string               `json:"element_names"`
	Elements     analysis.Elements      `json:"elements"`
	Stats        map[string]interface{} `json:"stats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"kinds": s.service.Kinds()})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.InvalidInput("malformed request body"))
		return
	}
	agentID, err := core.ParseAgentID(req.AgentID)
	if err != nil {
		writeError(w, errors.InvalidInput("agent_id is required"))
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, errors.InvalidInput("samples are required"))
		return
	}

	agent := &recordedAgent{
		id:      agentID,
		history: history.FromSamples(req.Samples),
	}
	result, err := s.service.RunAll(r.Context(), agent, core.RunID(req.RunID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	filters := ports.SnapshotFilters{}
	query := r.URL.Query()
	if v := query.Get("run"); v != "" {
		id := core.RunID(v)
		filters.RunID = &id
	}
	if v := query.Get("agent"); v != "" {
		id := core.AgentID(v)
		filters.AgentID = &id
	}
	if v := query.Get("kind"); v != "" {
		kind := analysis.Kind(v)
		filters.Kind = &kind
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, errors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		filters.Limit = n
	}

	records, err := s.store.ListSnapshots(r.Context(), filters)
	if err != nil {
		writeError(w, err)
		return
	}
	metas := make([]snapshotMeta, len(records))
	for i, rec := range records {
		metas[i] = snapshotMeta{
			ID:          rec.ID,
			RunID:       rec.RunID,
			AgentID:     rec.AgentID,
			Kind:        rec.Kind,
			Schema:      rec.Schema,
			Fingerprint: rec.Fingerprint,
			CreatedAt:   rec.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": metas})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetSnapshot(r.Context(), core.SnapshotID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(rec.Envelope)
}

func (s *Server) handleSnapshotStats(w http.ResponseWriter, r *http.Request) {
	a, err := s.loadSnapshotAnalysis(r, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"kind":  a.Kind(),
		"stats": a.Stats(),
	})
}

func (s *Server) handleSnapshotReport(w http.ResponseWriter, r *http.Request) {
	a, err := s.loadSnapshotAnalysis(r, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := a.WriteReport(&buf); err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		doc := fmt.Sprintf("# %s report\n\n```\n%s```\n", a.Kind(), buf.String())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(markdown.ToHTML([]byte(doc), nil, nil))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleSnapshotDiff(w http.ResponseWriter, r *http.Request) {
	currentID := core.SnapshotID(chi.URLParam(r, "id"))
	otherID := core.SnapshotID(chi.URLParam(r, "otherID"))

	diff, err := s.service.Diff(r.Context(), currentID, otherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diffResponse{
		Kind:         diff.Kind(),
		ElementNames: diff.ElementNames(),
		Elements:     diff.Elements(),
		Stats:        diff.Stats(),
	})
}

func (s *Server) loadSnapshotAnalysis(r *http.Request, id string) (analysis.Analysis, error) {
	rec, err := s.store.GetSnapshot(r.Context(), core.SnapshotID(id))
	if err != nil {
		return nil, err
	}
	return analysis.Decode(rec.Envelope)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]interface{}{"error": err.Error()})
}

// statusFor maps domain and input errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	case core.IsContractViolation(err):
		return http.StatusConflict
	case errors.GetCode(err) == errors.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
