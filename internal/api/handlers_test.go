package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/esplearn/internal/database"
	"github.com/example/esplearn/internal/excel"
	"github.com/example/esplearn/internal/services"
	"github.com/example/esplearn/pkg/models"
)

func setupTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := database.Connect(database.Config{Type: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	reviews := services.NewReviewService(
		database.NewVocabularyRepository(db),
		database.NewReviewHistoryRepository(db),
	)
	levels := services.NewLevelService(
		database.NewProfileRepository(db),
		database.NewReviewHistoryRepository(db),
	)
	handler := NewHandler(reviews, levels, excel.NewImporter(reviews))
	return NewRouter(handler, "")
}

func doJSON(t *testing.T, router *chi.Mux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_SaveWord(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid word",
			body:       `{"lemma":"perro","translation":"dog","context":"El perro ladra"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "existing word is idempotent",
			body:       `{"lemma":"perro","translation":"dog"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing lemma",
			body:       `{"translation":"dog"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid JSON",
			body:       `{invalid}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/learners/learner-1/vocabulary", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("SaveWord() status = %v, want %v (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandler_ReviewWord(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/learners/learner-1/vocabulary",
		`{"lemma":"gato","translation":"cat"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed word: status = %v", rec.Code)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "numeric quality", body: `{"quality":5}`, wantStatus: http.StatusOK},
		{name: "categorical quality", body: `{"quality":"good"}`, wantStatus: http.StatusOK},
		{name: "quality out of range", body: `{"quality":9}`, wantStatus: http.StatusBadRequest},
		{name: "unknown rating", body: `{"quality":"meh"}`, wantStatus: http.StatusBadRequest},
		{name: "missing quality", body: `{}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/learners/learner-1/vocabulary/gato/review", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("ReviewWord() status = %v, want %v (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	// Reviewing another learner's word must not leak across learners.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/learners/learner-2/vocabulary/gato/review", `{"quality":5}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-learner review status = %v, want 404", rec.Code)
	}
}

func TestHandler_DueWords(t *testing.T) {
	router := setupTestRouter(t)

	for _, lemma := range []string{"uno", "dos", "tres"} {
		doJSON(t, router, http.MethodPost, "/api/v1/learners/learner-1/vocabulary",
			`{"lemma":"`+lemma+`","translation":"n"}`)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/learners/learner-1/vocabulary/due?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GetDueWords() status = %v", rec.Code)
	}

	var resp struct {
		Words []models.VocabularyItem `json:"words"`
		Count int                     `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Words) != 2 {
		t.Errorf("due words count = %d (len %d), want 2", resp.Count, len(resp.Words))
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/learners/learner-1/vocabulary/due?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid limit status = %v, want 400", rec.Code)
	}
}

func TestHandler_DeleteWord(t *testing.T) {
	router := setupTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/learners/learner-1/vocabulary",
		`{"lemma":"adios","translation":"goodbye"}`)

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/learners/learner-1/vocabulary/adios", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("DeleteWord() status = %v, want 204", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/learners/learner-1/vocabulary/adios", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %v, want 404", rec.Code)
	}
}

func TestHandler_LevelEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/learners/learner-1/level", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("AssessLevel() status = %v", rec.Code)
	}
	var assessment models.Assessment
	if err := json.NewDecoder(rec.Body).Decode(&assessment); err != nil {
		t.Fatalf("decode assessment: %v", err)
	}
	if assessment.CurrentLevel != models.DefaultLevel {
		t.Errorf("CurrentLevel = %v, want %v", assessment.CurrentLevel, models.DefaultLevel)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/learners/learner-1/level/upgrade", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("UpgradeLevel() status = %v", rec.Code)
	}
	var transition models.TransitionResult
	if err := json.NewDecoder(rec.Body).Decode(&transition); err != nil {
		t.Fatalf("decode transition: %v", err)
	}
	if !transition.Applied || transition.NewLevel != models.LevelB1 {
		t.Errorf("upgrade = %+v, want applied B1", transition)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/learners/learner-1/level/difficulty-mix", "")
	if rec.Code != http.StatusOK {
		t.Errorf("DifficultyMix() status = %v", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/learners/learner-1/level/analytics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Analytics() status = %v", rec.Code)
	}
}

func TestHandler_AwardPoints(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/learners/learner-1/points",
		`{"points":50,"activity_type":"quiz"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("AwardPoints() status = %v (body %s)", rec.Code, rec.Body.String())
	}
	var result services.PointsResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.TotalPoints != 50 || result.LeveledUp {
		t.Errorf("result = %+v, want 50 points without level-up", result)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/learners/learner-1/points", `{"points":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero points status = %v, want 400", rec.Code)
	}
}

func TestHandler_ImportDeck(t *testing.T) {
	router := setupTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "deck.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("Lemma,Translation,Context\nperro,dog,El perro ladra\ngato,cat,\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/learners/learner-1/vocabulary/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ImportDeck() status = %v (body %s)", rec.Code, rec.Body.String())
	}
	var result excel.ImportResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Created != 2 || result.Skipped != 0 {
		t.Errorf("import result = %+v, want 2 created", result)
	}

	// Imported words are due immediately.
	dueRec := doJSON(t, router, http.MethodGet, "/api/v1/learners/learner-1/vocabulary/due", "")
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(dueRec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode due response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("due count after import = %d, want 2", resp.Count)
	}
}

func TestHandler_CORSPreflight(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/learners/learner-1/vocabulary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %v, want 200", rec.Code)
	}
	methods := rec.Header().Get("Access-Control-Allow-Methods")
	if !strings.Contains(methods, "DELETE") || strings.Contains(methods, "PUT") {
		t.Errorf("Allow-Methods = %q, want DELETE advertised and no PUT", methods)
	}
}

func TestHandler_BearerAuth(t *testing.T) {
	db, err := database.Connect(database.Config{Type: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	reviews := services.NewReviewService(
		database.NewVocabularyRepository(db),
		database.NewReviewHistoryRepository(db),
	)
	levels := services.NewLevelService(
		database.NewProfileRepository(db),
		database.NewReviewHistoryRepository(db),
	)
	router := NewRouter(NewHandler(reviews, levels, excel.NewImporter(reviews)), "secret")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/learners/learner-1/vocabulary",
		`{"lemma":"hola","translation":"hello"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated write status = %v, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/learners/learner-1/vocabulary",
		bytes.NewBufferString(`{"lemma":"hola","translation":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	authed := httptest.NewRecorder()
	router.ServeHTTP(authed, req)
	if authed.Code != http.StatusCreated {
		t.Errorf("authenticated write status = %v, want 201", authed.Code)
	}

	// Reads stay open.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/learners/learner-1/vocabulary/stats", "")
	if rec.Code != http.StatusOK {
		t.Errorf("unauthenticated read status = %v, want 200", rec.Code)
	}
}
