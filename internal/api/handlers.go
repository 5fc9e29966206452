package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/esplearn/internal/excel"
	"github.com/example/esplearn/internal/services"
	"github.com/example/esplearn/internal/srs"
	"github.com/example/esplearn/pkg/models"
)

// Handler contains all HTTP handlers
type Handler struct {
	reviews  *services.ReviewService
	levels   *services.LevelService
	importer *excel.Importer
}

// NewHandler creates a new handler
func NewHandler(reviews *services.ReviewService, levels *services.LevelService, importer *excel.Importer) *Handler {
	return &Handler{
		reviews:  reviews,
		levels:   levels,
		importer: importer,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "word not found")
	case errors.Is(err, services.ErrEmptyLemma):
		writeError(w, http.StatusBadRequest, "lemma is required")
	case errors.Is(err, services.ErrInvalidPoints):
		writeError(w, http.StatusBadRequest, "points must be positive")
	case errors.Is(err, srs.ErrInvalidQuality):
		writeError(w, http.StatusBadRequest, "quality must be 0-5 or one of again/hard/good/easy")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func learnerID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "learnerID"))
}

// SaveWord handles POST /api/v1/learners/{learnerID}/vocabulary
func (h *Handler) SaveWord(w http.ResponseWriter, r *http.Request) {
	var req services.SaveWordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, created, err := h.reviews.SaveWord(r.Context(), learnerID(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, item)
}

// GetDueWords handles GET /api/v1/learners/{learnerID}/vocabulary/due
func (h *Handler) GetDueWords(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	words, err := h.reviews.GetDueWords(r.Context(), learnerID(r), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if words == nil {
		words = []models.VocabularyItem{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"words": words,
		"count": len(words),
	})
}

// reviewRequest accepts the recall quality as either a 0-5 number or a
// categorical rating string. The mapping to the numeric scale happens here.
type reviewRequest struct {
	Quality json.RawMessage `json:"quality"`
}

func (req reviewRequest) quality() (srs.Quality, error) {
	if len(req.Quality) == 0 {
		return 0, srs.ErrInvalidQuality
	}
	var n int
	if err := json.Unmarshal(req.Quality, &n); err == nil {
		return srs.Quality(n), nil
	}
	var s string
	if err := json.Unmarshal(req.Quality, &s); err == nil {
		return srs.ParseQuality(s)
	}
	return 0, srs.ErrInvalidQuality
}

// ReviewWord handles POST /api/v1/learners/{learnerID}/vocabulary/{lemma}/review
func (h *Handler) ReviewWord(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quality, err := req.quality()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	item, err := h.reviews.ReviewWord(r.Context(), learnerID(r), chi.URLParam(r, "lemma"), quality)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ResetWord handles POST /api/v1/learners/{learnerID}/vocabulary/{lemma}/reset
func (h *Handler) ResetWord(w http.ResponseWriter, r *http.Request) {
	item, err := h.reviews.ResetWord(r.Context(), learnerID(r), chi.URLParam(r, "lemma"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteWord handles DELETE /api/v1/learners/{learnerID}/vocabulary/{lemma}
func (h *Handler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.DeleteWord(r.Context(), learnerID(r), chi.URLParam(r, "lemma")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MasteryStats handles GET /api/v1/learners/{learnerID}/vocabulary/stats
func (h *Handler) MasteryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reviews.MasteryStats(r.Context(), learnerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Forecast handles GET /api/v1/learners/{learnerID}/vocabulary/forecast
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	forecast, err := h.reviews.Forecast(r.Context(), learnerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

// Streak handles GET /api/v1/learners/{learnerID}/vocabulary/streak
func (h *Handler) Streak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.reviews.Streak(r.Context(), learnerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, streak)
}

// ImportDeck handles POST /api/v1/learners/{learnerID}/vocabulary/import
func (h *Handler) ImportDeck(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	result, err := h.importer.ImportDeck(r.Context(), learnerID(r), header.Filename, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AssessLevel handles GET /api/v1/learners/{learnerID}/level
func (h *Handler) AssessLevel(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.levels.AssessLevel(r.Context(), learnerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

// UpgradeLevel handles POST /api/v1/learners/{learnerID}/level/upgrade
func (h *Handler) UpgradeLevel(w http.ResponseWriter, r *http.Request) {
	res, err := h.levels.UpgradeLevel(r.Context(), learnerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DowngradeLevel handles POST /api/v1/learners/{learnerID}/level/downgrade
func (h *Handler) DowngradeLevel(w http.ResponseWriter, r *http.Request) {
	res, err := h.levels.DowngradeLevel(r.Context(), learnerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type pointsRequest struct {
	Points       int    `json:"points"`
	ActivityType string `json:"activity_type"`
}

// AwardPoints handles POST /api/v1/learners/{learnerID}/points
func (h *Handler) AwardPoints(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.levels.AwardPoints(r.Context(), learnerID(r), req.Points, req.ActivityType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// DifficultyMix handles GET /api/v1/learners/{learnerID}/level/difficulty-mix
func (h *Handler) DifficultyMix(w http.ResponseWriter, r *http.Request) {
	mix, err := h.levels.DifficultyMix(r.Context(), learnerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mix)
}

// Analytics handles GET /api/v1/learners/{learnerID}/level/analytics
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.levels.Analytics(r.Context(), learnerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
