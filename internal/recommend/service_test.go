package recommend

import (
	"testing"
	"time"

	"newslens/internal/cache"
	"newslens/internal/config"
	"newslens/internal/models"
	"newslens/internal/storage"
	"newslens/internal/vecindex"
)

const testDim = 4

// countingIndex serves canned hits and counts which search paths were taken.
type countingIndex struct {
	hits         []vecindex.Result
	articleCalls int
	profileCalls int
}

func (c *countingIndex) SearchByArticle(articleID int64, k int) ([]vecindex.Result, error) {
	c.articleCalls++
	return c.hits, nil
}

func (c *countingIndex) SearchByUserProfile(userID int64, k int) ([]vecindex.Result, error) {
	c.profileCalls++
	return c.hits, nil
}

func newTestStorage(t *testing.T) storage.Storage {
	t.Helper()
	cfg := &config.Config{EmbeddingDim: testDim}
	store, err := storage.NewStorage(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestService(store storage.Storage, index Index) *Service {
	return New(store, index, cache.NewManager(time.Minute), 10, 72*time.Hour, time.Minute)
}

// completeArticle stores an article with a terminal analysis record.
func completeArticle(t *testing.T, store storage.Storage, link string, keywords []string, label models.BiasLabel, status models.AnalysisStatus) int64 {
	t.Helper()

	id, err := store.SaveArticle(&models.Article{
		Title:       "Article " + link,
		Description: "d",
		OriginLink:  link,
		PublishDate: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to save article: %v", err)
	}
	if err := store.MarkProcessing(id); err != nil {
		t.Fatalf("Failed to mark processing: %v", err)
	}
	if err := store.SaveAnalysisResult(id, &models.AnalysisResult{
		Keywords:  keywords,
		Vector:    []float32{1, 0, 0, 0},
		BiasLabel: label,
		BiasScore: 0.5,
		Status:    status,
	}); err != nil {
		t.Fatalf("Failed to save analysis result: %v", err)
	}
	return id
}

func TestService_ColdStartUsesCategoriesNotIndex(t *testing.T) {
	store := newTestStorage(t)
	index := &countingIndex{}
	service := newTestService(store, index)

	matching := completeArticle(t, store, "https://example.com/m", []string{"politics"}, models.BiasNeutral, models.StatusCompleted)
	completeArticle(t, store, "https://example.com/other", []string{"sports"}, models.BiasNeutral, models.StatusCompleted)

	if err := store.SetPreferredCategories(1, []string{"politics"}); err != nil {
		t.Fatalf("Failed to set preferences: %v", err)
	}

	recommendations, err := service.RecommendForUser(1, 5)
	if err != nil {
		t.Fatalf("RecommendForUser failed: %v", err)
	}
	if len(recommendations) != 1 || recommendations[0].ArticleID != matching {
		t.Errorf("Expected only article %d, got %v", matching, recommendations)
	}

	// Cold start must never touch the vector index
	if index.articleCalls != 0 || index.profileCalls != 0 {
		t.Errorf("Expected zero index searches, got %d article and %d profile",
			index.articleCalls, index.profileCalls)
	}
}

func TestService_ColdStartWithoutPreferences(t *testing.T) {
	store := newTestStorage(t)
	service := newTestService(store, &countingIndex{})

	recommendations, err := service.RecommendForUser(1, 5)
	if err != nil {
		t.Fatalf("RecommendForUser failed: %v", err)
	}
	if len(recommendations) != 0 {
		t.Errorf("Expected empty result without preferences, got %v", recommendations)
	}
}

func TestService_WarmStartUsesOneProfileSearch(t *testing.T) {
	store := newTestStorage(t)

	target := completeArticle(t, store, "https://example.com/target", nil, models.BiasNeutral, models.StatusCompleted)
	read := completeArticle(t, store, "https://example.com/read", nil, models.BiasNeutral, models.StatusCompleted)

	// Push the user past the cold start threshold
	for i := 0; i < 11; i++ {
		if err := store.RecordRead(1, read); err != nil {
			t.Fatalf("Failed to record read: %v", err)
		}
	}

	index := &countingIndex{hits: []vecindex.Result{{ArticleID: target, Score: 0.9}}}
	service := newTestService(store, index)

	recommendations, err := service.RecommendForUser(1, 5)
	if err != nil {
		t.Fatalf("RecommendForUser failed: %v", err)
	}
	if len(recommendations) != 1 || recommendations[0].ArticleID != target {
		t.Errorf("Expected article %d, got %v", target, recommendations)
	}
	if recommendations[0].Score != 0.9 {
		t.Errorf("Expected score 0.9, got %f", recommendations[0].Score)
	}
	if index.profileCalls != 1 {
		t.Errorf("Expected exactly one profile search, got %d", index.profileCalls)
	}
	if index.articleCalls != 0 {
		t.Errorf("Expected zero article searches, got %d", index.articleCalls)
	}
}

func TestService_RecommendSimilarKeepsScoreOrder(t *testing.T) {
	store := newTestStorage(t)

	first := completeArticle(t, store, "https://example.com/first", nil, models.BiasNeutral, models.StatusCompleted)
	second := completeArticle(t, store, "https://example.com/second", nil, models.BiasNeutral, models.StatusCompleted)

	index := &countingIndex{hits: []vecindex.Result{
		{ArticleID: first, Score: 0.95},
		{ArticleID: second, Score: 0.80},
	}}
	service := newTestService(store, index)

	recommendations, err := service.RecommendSimilar(42, 5)
	if err != nil {
		t.Fatalf("RecommendSimilar failed: %v", err)
	}
	if len(recommendations) != 2 {
		t.Fatalf("Expected 2 recommendations, got %d", len(recommendations))
	}
	if recommendations[0].ArticleID != first || recommendations[1].ArticleID != second {
		t.Errorf("Expected order [%d %d], got [%d %d]",
			first, second, recommendations[0].ArticleID, recommendations[1].ArticleID)
	}
	if index.articleCalls != 1 {
		t.Errorf("Expected one article search, got %d", index.articleCalls)
	}
}

func TestService_ResolveHitsDropsBiasedArticles(t *testing.T) {
	store := newTestStorage(t)

	neutral := completeArticle(t, store, "https://example.com/neutral", nil, models.BiasNeutral, models.StatusCompleted)
	biased := completeArticle(t, store, "https://example.com/biased", nil, models.BiasBiased, models.StatusFiltered)

	index := &countingIndex{hits: []vecindex.Result{
		{ArticleID: biased, Score: 0.99},
		{ArticleID: neutral, Score: 0.70},
	}}
	service := newTestService(store, index)

	recommendations, err := service.RecommendSimilar(42, 5)
	if err != nil {
		t.Fatalf("RecommendSimilar failed: %v", err)
	}
	if len(recommendations) != 1 || recommendations[0].ArticleID != neutral {
		t.Errorf("Expected only neutral article %d, got %v", neutral, recommendations)
	}
}

func TestService_ResolveHitsDropsStaleArticles(t *testing.T) {
	store := newTestStorage(t)

	stale, err := store.SaveArticle(&models.Article{
		Title:       "Stale",
		Description: "d",
		OriginLink:  "https://example.com/stale",
		PublishDate: time.Now().UTC(),
		CreatedAt:   time.Now().UTC().Add(-100 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Failed to save article: %v", err)
	}
	if err := store.MarkProcessing(stale); err != nil {
		t.Fatalf("Failed to mark processing: %v", err)
	}
	if err := store.SaveAnalysisResult(stale, &models.AnalysisResult{
		Vector:    []float32{1, 0, 0, 0},
		BiasLabel: models.BiasNeutral,
		Status:    models.StatusCompleted,
	}); err != nil {
		t.Fatalf("Failed to save analysis result: %v", err)
	}

	index := &countingIndex{hits: []vecindex.Result{{ArticleID: stale, Score: 0.99}}}
	service := newTestService(store, index)

	recommendations, err := service.RecommendSimilar(42, 5)
	if err != nil {
		t.Fatalf("RecommendSimilar failed: %v", err)
	}
	if len(recommendations) != 0 {
		t.Errorf("Expected stale article to be dropped, got %v", recommendations)
	}
}

func TestService_RecommendByCategoryCaches(t *testing.T) {
	store := newTestStorage(t)
	service := newTestService(store, &countingIndex{})

	completeArticle(t, store, "https://example.com/cat", []string{"it"}, models.BiasNeutral, models.StatusCompleted)

	first, err := service.RecommendByCategory([]string{"it"}, 5)
	if err != nil {
		t.Fatalf("RecommendByCategory failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Expected 1 recommendation, got %d", len(first))
	}

	// A new matching article does not surface while the entry is cached
	completeArticle(t, store, "https://example.com/cat2", []string{"it"}, models.BiasNeutral, models.StatusCompleted)

	second, err := service.RecommendByCategory([]string{"it"}, 5)
	if err != nil {
		t.Fatalf("RecommendByCategory failed: %v", err)
	}
	if len(second) != 1 {
		t.Errorf("Expected cached result with 1 recommendation, got %d", len(second))
	}
}

func TestService_RecommendByCategoryEmptyInput(t *testing.T) {
	store := newTestStorage(t)
	service := newTestService(store, &countingIndex{})

	recommendations, err := service.RecommendByCategory(nil, 5)
	if err != nil {
		t.Fatalf("RecommendByCategory failed: %v", err)
	}
	if len(recommendations) != 0 {
		t.Errorf("Expected empty result for no categories, got %v", recommendations)
	}
}
