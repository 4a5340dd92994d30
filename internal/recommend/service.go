package recommend

import (
	"log"
	"time"

	"newslens/internal/cache"
	"newslens/internal/models"
	"newslens/internal/storage"
	"newslens/internal/vecindex"
)

// Index is the similarity search surface the service composes with.
type Index interface {
	SearchByArticle(articleID int64, k int) ([]vecindex.Result, error)
	SearchByUserProfile(userID int64, k int) ([]vecindex.Result, error)
}

// Service answers the three recommendation queries: similar to an article,
// personal (cold or warm start) and by category. Every path drops articles
// labeled BIASED and articles outside the freshness window, as defense in
// depth on top of the index only holding COMPLETED vectors.
type Service struct {
	store        storage.Storage
	index        Index
	cacheManager *cache.Manager

	coldStartThreshold int
	freshnessWindow    time.Duration
	cacheTTL           time.Duration
}

func New(store storage.Storage, index Index, cacheManager *cache.Manager, coldStartThreshold int, freshnessWindow, cacheTTL time.Duration) *Service {
	return &Service{
		store:              store,
		index:              index,
		cacheManager:       cacheManager,
		coldStartThreshold: coldStartThreshold,
		freshnessWindow:    freshnessWindow,
		cacheTTL:           cacheTTL,
	}
}

// RecommendForUser picks the strategy from the amount of read history: with
// little signal it falls back to the user's preferred categories (cold
// start, no vector search at all); with enough history it runs exactly one
// profile search against the index (warm start).
func (s *Service) RecommendForUser(userID int64, k int) ([]models.Recommendation, error) {
	count, err := s.store.CountReadHistory(userID)
	if err != nil {
		return nil, err
	}

	if count <= s.coldStartThreshold {
		return s.coldStart(userID, k)
	}
	return s.warmStart(userID, k)
}

func (s *Service) coldStart(userID int64, k int) ([]models.Recommendation, error) {
	categories, err := s.store.GetPreferredCategories(userID)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		// No preferences recorded yet; nothing sensible to suggest
		return []models.Recommendation{}, nil
	}

	matches, err := s.store.ListCompletedByCategories(categories, userID, s.freshnessCutoff(), k)
	if err != nil {
		return nil, err
	}

	recommendations := make([]models.Recommendation, 0, len(matches))
	for _, m := range matches {
		recommendations = append(recommendations, models.Recommendation{
			ArticleID:  m.Article.ID,
			Title:      m.Article.Title,
			OriginLink: m.Article.OriginLink,
		})
	}
	return recommendations, nil
}

func (s *Service) warmStart(userID int64, k int) ([]models.Recommendation, error) {
	hits, err := s.index.SearchByUserProfile(userID, k)
	if err != nil {
		return nil, err
	}
	return s.resolveHits(hits, k), nil
}

// RecommendSimilar returns the articles most similar to the given one,
// most similar first.
func (s *Service) RecommendSimilar(articleID int64, k int) ([]models.Recommendation, error) {
	// Over-fetch so the bias and freshness filters do not starve the result
	hits, err := s.index.SearchByArticle(articleID, k*2)
	if err != nil {
		return nil, err
	}

	results := s.resolveHits(hits, k)
	return results, nil
}

// RecommendByCategory returns fresh COMPLETED articles matching any of the
// given categories, ranked by match count then recency. Responses are cached
// briefly since category pages are the hottest read path.
func (s *Service) RecommendByCategory(categories []string, k int) ([]models.Recommendation, error) {
	if len(categories) == 0 {
		return []models.Recommendation{}, nil
	}

	cacheKey := cache.CategoryKey(categories, k)
	if cached, found := s.cacheManager.Get(cacheKey); found {
		if recommendations, ok := cached.([]models.Recommendation); ok {
			return recommendations, nil
		}
	}

	matches, err := s.store.ListCompletedByCategories(categories, 0, s.freshnessCutoff(), k)
	if err != nil {
		return nil, err
	}

	recommendations := make([]models.Recommendation, 0, len(matches))
	for _, m := range matches {
		recommendations = append(recommendations, models.Recommendation{
			ArticleID:  m.Article.ID,
			Title:      m.Article.Title,
			OriginLink: m.Article.OriginLink,
		})
	}

	s.cacheManager.Set(cacheKey, recommendations, s.cacheTTL)
	return recommendations, nil
}

// resolveHits loads article metadata for index hits, dropping anything
// biased or stale, and keeps descending-similarity order.
func (s *Service) resolveHits(hits []vecindex.Result, k int) []models.Recommendation {
	ids := make([]int64, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ArticleID)
	}

	articles, err := s.store.FilterRecommendable(ids, s.freshnessCutoff())
	if err != nil {
		log.Printf("Warning: failed to resolve recommendation hits: %v", err)
		return []models.Recommendation{}
	}

	recommendations := make([]models.Recommendation, 0, k)
	for _, hit := range hits {
		article, ok := articles[hit.ArticleID]
		if !ok {
			continue
		}
		recommendations = append(recommendations, models.Recommendation{
			ArticleID:  article.ID,
			Title:      article.Title,
			OriginLink: article.OriginLink,
			Score:      hit.Score,
		})
		if len(recommendations) == k {
			break
		}
	}
	return recommendations
}

func (s *Service) freshnessCutoff() time.Time {
	return time.Now().UTC().Add(-s.freshnessWindow)
}
