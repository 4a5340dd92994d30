package storage

import (
	"time"

	"newslens/internal/models"
)

// Storage defines the persistence contract for articles, analysis state,
// embeddings and user signals.
type Storage interface {
	// Articles. SaveArticle inserts the article together with its PENDING
	// analysis record in a single transaction.
	SaveArticle(article *models.Article) (int64, error)
	GetArticle(id int64) (*models.Article, error)
	ArticleExists(originLink string) (bool, error)

	// Analysis lifecycle. The pipeline is the only writer of these.
	GetAnalysisRecord(articleID int64) (*models.AnalysisRecord, error)
	MarkProcessing(articleID int64) error
	SaveAnalysisResult(articleID int64, result *models.AnalysisResult) error
	MarkFailed(articleID int64) error
	SetClusterID(articleID, clusterID int64) error

	// Embeddings
	GetEmbedding(articleID int64) ([]float32, error)
	ListCompletedEmbeddings() ([]models.StoredVector, error)
	ListClusterCandidates(excludeID int64, since time.Time) ([]models.ClusterCandidate, error)

	// User signals
	RecordRead(userID, articleID int64) error
	CountReadHistory(userID int64) (int, error)
	ListReadArticleIDs(userID int64) ([]int64, error)
	ListReadEmbeddings(userID int64) ([]models.StoredVector, error)
	SetPreferredCategories(userID int64, categories []string) error
	GetPreferredCategories(userID int64) ([]string, error)

	// Recommendation queries
	ListCompletedByCategories(categories []string, excludeUserID int64, since time.Time, limit int) ([]models.CategoryMatch, error)
	FilterFresh(ids []int64, since time.Time) (map[int64]bool, error)
	FilterRecommendable(ids []int64, since time.Time) (map[int64]models.Article, error)

	// Maintenance
	CleanupOldArticles(retention time.Duration) error
	GetDatabaseStats() (map[string]interface{}, error)
	Close() error
}
