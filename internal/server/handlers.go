package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RianMcHale/Container-Security-Scanner/internal/model"
	"github.com/RianMcHale/Container-Security-Scanner/internal/store"
	"github.com/RianMcHale/Container-Security-Scanner/internal/summary"
)

type scanSummaryResponse struct {
	ID        int64                `json:"id"`
	Image     string               `json:"image"`
	CreatedAt string               `json:"created_at"`
	Summary   model.SeverityCounts `json:"summary"`
}

type scanDetailResponse struct {
	scanSummaryResponse
	Report json.RawMessage `json:"report"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// POST /scan — run a scan for the requested image, persist the report
// and return its summary.
func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Image) == "" {
		writeError(w, http.StatusBadRequest, "image name is required")
		return
	}

	report, err := s.invoker.Scan(r.Context(), req.Image)
	if err != nil {
		s.log.Errorw("scan failed", "image", req.Image, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	id, err := s.store.Save(r.Context(), req.Image, createdAt, report)
	if err != nil {
		// The scan result is discarded; there is no retry queue.
		s.log.Errorw("failed to persist scan result", "image", req.Image, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist scan result")
		return
	}

	writeJSON(w, http.StatusCreated, scanSummaryResponse{
		ID:        id,
		Image:     req.Image,
		CreatedAt: createdAt,
		Summary:   summary.Summarize(report),
	})
}

// GET /scans — every stored scan with its summary, newest first. Full
// reports are never included here.
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListAll(r.Context())
	if err != nil {
		s.log.Errorw("failed to list scans", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list scans")
		return
	}

	out := make([]scanSummaryResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, scanSummaryResponse{
			ID:        rec.ID,
			Image:     rec.Image,
			CreatedAt: rec.CreatedAt,
			Summary:   summary.Summarize(json.RawMessage(rec.Report)),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /scans/{id} — one scan including its full report.
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}

	rec, err := s.store.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		s.log.Errorw("failed to load scan", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load scan")
		return
	}

	writeJSON(w, http.StatusOK, scanDetailResponse{
		scanSummaryResponse: scanSummaryResponse{
			ID:        rec.ID,
			Image:     rec.Image,
			CreatedAt: rec.CreatedAt,
			Summary:   summary.Summarize(json.RawMessage(rec.Report)),
		},
		Report: json.RawMessage(rec.Report),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
