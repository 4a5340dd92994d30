package cluster

import (
	"log"
	"math"
	"time"

	"newslens/internal/models"
)

// Store is the persistence slice the engine needs.
type Store interface {
	ListClusterCandidates(excludeID int64, since time.Time) ([]models.ClusterCandidate, error)
	SetClusterID(articleID, clusterID int64) error
}

// Engine groups biased articles believed to cover the same event using a
// greedy similarity-threshold heuristic. A new article either joins the
// cluster of its single most similar recent candidate or starts a singleton
// group under its own id. Groups are never merged retroactively; two
// singletons that later turn out similar stay separate, since downstream
// consumers rely on stable cluster ids.
type Engine struct {
	store         Store
	threshold     float64
	recencyWindow time.Duration
}

func New(store Store, threshold float64, recencyWindow time.Duration) *Engine {
	return &Engine{
		store:         store,
		threshold:     threshold,
		recencyWindow: recencyWindow,
	}
}

// Assign gives the article a cluster id and returns it. Candidates are
// FILTERED articles created within the recency window that already carry a
// cluster id.
func (e *Engine) Assign(articleID int64, vector []float32) (int64, error) {
	since := time.Now().UTC().Add(-e.recencyWindow)
	candidates, err := e.store.ListClusterCandidates(articleID, since)
	if err != nil {
		return 0, err
	}

	bestSimilarity := -1.0
	var bestClusterID int64
	for _, c := range candidates {
		similarity, ok := cosine(vector, c.Vector)
		if !ok {
			continue
		}
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			bestClusterID = c.ClusterID
		}
	}

	clusterID := articleID
	if bestSimilarity >= e.threshold {
		clusterID = bestClusterID
		log.Printf("Clustering: article %d joins cluster %d (similarity %.4f)", articleID, clusterID, bestSimilarity)
	} else {
		log.Printf("Clustering: article %d starts new cluster %d", articleID, clusterID)
	}

	if err := e.store.SetClusterID(articleID, clusterID); err != nil {
		return 0, err
	}
	return clusterID, nil
}

// cosine returns the cosine similarity of two vectors; ok is false when
// either vector has zero norm or the lengths differ.
func cosine(a, b []float32) (float64, bool) {
	if len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
