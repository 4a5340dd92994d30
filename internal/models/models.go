package models

import (
	"time"
)

// AnalysisStatus tracks where an article is in the AI processing lifecycle.
// Transitions are monotonic: PENDING -> PROCESSING -> {COMPLETED, FILTERED, FAILED}.
type AnalysisStatus string

const (
	StatusPending    AnalysisStatus = "PENDING"
	StatusProcessing AnalysisStatus = "PROCESSING"
	StatusCompleted  AnalysisStatus = "COMPLETED"
	StatusFiltered   AnalysisStatus = "FILTERED"
	StatusFailed     AnalysisStatus = "FAILED"
)

// IsTerminal reports whether the status is a rest state for a processing run.
func (s AnalysisStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFiltered || s == StatusFailed
}

// BiasLabel is the classifier verdict on an article body.
type BiasLabel string

const (
	BiasNeutral BiasLabel = "NEUTRAL"
	BiasBiased  BiasLabel = "BIASED"
	BiasUnknown BiasLabel = "UNKNOWN"
)

// Article is the immutable content record created by the ingester.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OriginLink  string    `json:"origin_link"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Language    string    `json:"language"`
	PublishDate time.Time `json:"publish_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// AnalysisRecord holds the processing state and bias verdict for one article.
// Exactly one exists per article; it is created PENDING by the ingester and
// mutated only by the analysis pipeline.
type AnalysisRecord struct {
	ArticleID int64          `json:"article_id"`
	Status    AnalysisStatus `json:"status"`
	BiasLabel BiasLabel      `json:"bias_label,omitempty"`
	BiasScore float64        `json:"bias_score"`
	ClusterID *int64         `json:"cluster_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// AnalysisResult carries everything the compute stage produced for one
// article; the store persists it atomically.
type AnalysisResult struct {
	Keywords  []string
	Vector    []float32
	BiasLabel BiasLabel
	BiasScore float64
	Status    AnalysisStatus
}

// StoredVector pairs an article id with its persisted embedding.
type StoredVector struct {
	ArticleID int64
	Vector    []float32
}

// ClusterCandidate is a biased article eligible for greedy grouping.
type ClusterCandidate struct {
	ArticleID int64
	ClusterID int64
	Vector    []float32
}

// Recommendation is a single ranked recommendation entry.
type Recommendation struct {
	ArticleID  int64   `json:"article_id"`
	Title      string  `json:"title"`
	OriginLink string  `json:"origin_link"`
	Score      float64 `json:"score,omitempty"`
}

// CategoryMatch is a cold-start / category query row: an article plus how
// many of the requested categories its keyword set intersects.
type CategoryMatch struct {
	Article    Article
	MatchCount int
}
