package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"newslens/internal/ai"
	"newslens/internal/analysis"
	"newslens/internal/cache"
	"newslens/internal/cluster"
	"newslens/internal/config"
	"newslens/internal/ingest"
	"newslens/internal/models"
	"newslens/internal/recommend"
	"newslens/internal/storage"
	"newslens/internal/vecindex"

	"github.com/gin-gonic/gin"
)

const testDim = 4

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAI answers instantly so handler tests never wait on a model.
type fakeAI struct {
	biasLabel models.BiasLabel
}

func (f *fakeAI) Encode(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

func (f *fakeAI) Classify(ctx context.Context, text string) (ai.BiasResult, error) {
	label := f.biasLabel
	if label == "" {
		label = models.BiasNeutral
	}
	return ai.BiasResult{Label: label, Score: 0.5}, nil
}

func (f *fakeAI) Tag(ctx context.Context, text string, candidates []string) ([]string, error) {
	return []string{"politics"}, nil
}

func newTestServer(t *testing.T) (*Server, storage.Storage) {
	t.Helper()

	cfg := &config.Config{
		Port:                    8080,
		CacheTTL:                time.Minute,
		EmbeddingDim:            testDim,
		SimilarityThreshold:     0.85,
		ClusterRecencyWindow:    24 * time.Hour,
		FreshnessWindow:         72 * time.Hour,
		ColdStartThreshold:      10,
		ProfileSearchMultiplier: 3,
		CandidateCategories:     []string{"politics", "economy"},
		EnableSwagger:           false,
		Security: config.SecurityConfig{
			MaxRequestSize: 10 << 20,
		},
	}

	store, err := storage.NewStorage(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	index := vecindex.New(store, testDim, cfg.FreshnessWindow, cfg.ProfileSearchMultiplier)
	engine := cluster.New(store, cfg.SimilarityThreshold, cfg.ClusterRecencyWindow)
	fake := &fakeAI{}
	pipeline := analysis.New(store, fake, fake, fake, index, engine, cfg.CandidateCategories, testDim)
	recommender := recommend.New(store, index, cache.NewManager(cfg.CacheTTL), cfg.ColdStartThreshold, cfg.FreshnessWindow, cfg.CacheTTL)
	poller := ingest.New(store, pipeline, map[string]config.SourceConfig{}, time.Hour)

	return NewServer(store, pipeline, recommender, index, poller, cfg), store
}

func saveTestArticle(t *testing.T, store storage.Storage, link string) int64 {
	t.Helper()
	id, err := store.SaveArticle(&models.Article{
		Title:       "Test Article",
		Description: "Test description",
		OriginLink:  link,
		PublishDate: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to save article: %v", err)
	}
	return id
}

func doRequest(server *Server, method, path string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

// waitForTerminal polls the analysis record until the background run lands
// in a terminal state.
func waitForTerminal(t *testing.T, store storage.Storage, id int64) *models.AnalysisRecord {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		record, err := store.GetAnalysisRecord(id)
		if err != nil {
			t.Fatalf("Failed to load record: %v", err)
		}
		if record.Status.IsTerminal() {
			return record
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for analysis to finish")
	return nil
}

func TestServer_HealthCheck(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(server, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", body["status"])
	}
	if body["poller_active"] != false {
		t.Errorf("Expected poller_active false, got %v", body["poller_active"])
	}
}

func TestServer_TriggerAndGetAnalysis(t *testing.T) {
	server, store := newTestServer(t)
	id := saveTestArticle(t, store, "https://example.com/1")

	w := doRequest(server, "GET", "/api/v1/analysis/articles/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for record fetch, got %d", w.Code)
	}
	var record models.AnalysisRecord
	if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
		t.Fatalf("Failed to parse record: %v", err)
	}
	if record.Status != models.StatusPending {
		t.Errorf("Expected PENDING record, got %s", record.Status)
	}

	w = doRequest(server, "POST", "/api/v1/analysis/articles/1", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202 for trigger, got %d", w.Code)
	}

	final := waitForTerminal(t, store, id)
	if final.Status != models.StatusCompleted {
		t.Errorf("Expected COMPLETED after background run, got %s", final.Status)
	}

	// A second trigger on the finished record is a no-op
	w = doRequest(server, "POST", "/api/v1/analysis/articles/1", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for duplicate trigger, got %d", w.Code)
	}
}

func TestServer_AnalysisNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(server, "GET", "/api/v1/analysis/articles/999", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	w = doRequest(server, "POST", "/api/v1/analysis/articles/999", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestServer_InvalidPathID(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(server, "GET", "/api/v1/analysis/articles/abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-numeric id, got %d", w.Code)
	}
}

func TestServer_RecommendSimilar(t *testing.T) {
	server, store := newTestServer(t)

	// Two processed articles so one can be similar to the other
	first := saveTestArticle(t, store, "https://example.com/s1")
	second := saveTestArticle(t, store, "https://example.com/s2")
	doRequest(server, "POST", "/api/v1/analysis/articles/1", "")
	doRequest(server, "POST", "/api/v1/analysis/articles/2", "")
	waitForTerminal(t, store, first)
	waitForTerminal(t, store, second)

	w := doRequest(server, "GET", "/api/v1/recommendations/similar/1?k=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Count           int                     `json:"count"`
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body.Count != 1 || body.Recommendations[0].ArticleID != second {
		t.Errorf("Expected article %d recommended, got %+v", second, body)
	}
}

func TestServer_RecommendSimilarUnanalyzed(t *testing.T) {
	server, store := newTestServer(t)
	saveTestArticle(t, store, "https://example.com/raw")

	// No embedding exists yet for the article
	w := doRequest(server, "GET", "/api/v1/recommendations/similar/1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unanalyzed article, got %d", w.Code)
	}
}

func TestServer_UserReadAndPreferences(t *testing.T) {
	server, store := newTestServer(t)
	saveTestArticle(t, store, "https://example.com/read")

	w := doRequest(server, "POST", "/api/v1/users/1/read/1", "")
	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201 for read record, got %d", w.Code)
	}

	w = doRequest(server, "POST", "/api/v1/users/1/read/999", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown article, got %d", w.Code)
	}

	w = doRequest(server, "PUT", "/api/v1/users/1/categories", `{"categories": ["politics", "it"]}`)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for preferences, got %d", w.Code)
	}

	categories, err := store.GetPreferredCategories(1)
	if err != nil {
		t.Fatalf("Failed to load preferences: %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("Expected 2 stored categories, got %v", categories)
	}

	w = doRequest(server, "PUT", "/api/v1/users/1/categories", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid body, got %d", w.Code)
	}
}

func TestServer_RecommendForUserColdStart(t *testing.T) {
	server, store := newTestServer(t)

	first := saveTestArticle(t, store, "https://example.com/c1")
	doRequest(server, "POST", "/api/v1/analysis/articles/1", "")
	waitForTerminal(t, store, first)

	// Preferences matching the fake tagger's keyword
	doRequest(server, "PUT", "/api/v1/users/1/categories", `{"categories": ["politics"]}`)

	w := doRequest(server, "GET", "/api/v1/recommendations/user/1?k=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("Expected 1 cold start recommendation, got %d", body.Count)
	}
}

func TestServer_RecommendByCategory(t *testing.T) {
	server, store := newTestServer(t)

	first := saveTestArticle(t, store, "https://example.com/cat1")
	doRequest(server, "POST", "/api/v1/analysis/articles/1", "")
	waitForTerminal(t, store, first)

	w := doRequest(server, "GET", "/api/v1/recommendations/category?categories=politics,economy&k=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("Expected 1 category recommendation, got %d", body.Count)
	}

	// Missing categories parameter
	w = doRequest(server, "GET", "/api/v1/recommendations/category", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without categories, got %d", w.Code)
	}
}

func TestServer_IngestEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	w := doRequest(server, "GET", "/api/v1/ingest/status", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for ingest status, got %d", w.Code)
	}

	w = doRequest(server, "POST", "/api/v1/ingest/force-poll/unknown", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown source, got %d", w.Code)
	}
}

func TestServer_Stats(t *testing.T) {
	server, store := newTestServer(t)
	saveTestArticle(t, store, "https://example.com/stat")

	w := doRequest(server, "GET", "/api/v1/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["articles"] != float64(1) {
		t.Errorf("Expected 1 article in stats, got %v", body["articles"])
	}
	if _, ok := body["indexed_vectors"]; !ok {
		t.Error("Expected indexed_vectors in stats")
	}
}
