package vecindex

import (
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"newslens/internal/models"
)

// Store is the slice of persistence the index needs: embeddings are read
// from the source of truth, never from the in-memory rows.
type Store interface {
	GetEmbedding(articleID int64) ([]float32, error)
	ListReadArticleIDs(userID int64) ([]int64, error)
	ListReadEmbeddings(userID int64) ([]models.StoredVector, error)
	FilterFresh(ids []int64, since time.Time) (map[int64]bool, error)
}

// Result is a single similarity hit.
type Result struct {
	ArticleID int64   `json:"article_id"`
	Score     float64 `json:"score"`
}

// Index holds L2-normalized embeddings for all COMPLETED articles and
// answers cosine k-nearest-neighbor queries. A single exclusive lock guards
// rows and ids for add, search and build alike; writes are rare compared to
// reads, so the coarse lock stays simple.
type Index struct {
	mu   sync.Mutex
	dim  int
	rows [][]float32
	ids  []int64

	store             Store
	freshnessWindow   time.Duration
	profileMultiplier int
}

func New(store Store, dim int, freshnessWindow time.Duration, profileMultiplier int) *Index {
	if profileMultiplier < 1 {
		profileMultiplier = 1
	}
	return &Index{
		dim:               dim,
		store:             store,
		freshnessWindow:   freshnessWindow,
		profileMultiplier: profileMultiplier,
	}
}

// Build replaces the index contents from the persistent store. It runs as a
// blocking initialization step at process start; readers are not served
// during a rebuild.
func (ix *Index) Build(vectors []models.StoredVector) error {
	rows := make([][]float32, 0, len(vectors))
	ids := make([]int64, 0, len(vectors))

	for _, sv := range vectors {
		unit, err := ix.normalized(sv.Vector)
		if err != nil {
			return err
		}
		rows = append(rows, unit)
		ids = append(ids, sv.ArticleID)
	}

	ix.mu.Lock()
	ix.rows = rows
	ix.ids = ids
	ix.mu.Unlock()

	log.Printf("Vector index built with %d vectors (dim=%d)", len(ids), ix.dim)
	return nil
}

// Add validates, normalizes and appends one vector. Safe for concurrent use
// with Search.
func (ix *Index) Add(articleID int64, vector []float32) error {
	unit, err := ix.normalized(vector)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	ix.rows = append(ix.rows, unit)
	ix.ids = append(ix.ids, articleID)
	ix.mu.Unlock()

	return nil
}

// Search returns the top-k entries by cosine similarity against the query,
// in strictly descending score order. Ties break by insertion order.
func (ix *Index) Search(query []float32, k int) ([]Result, error) {
	unit, err := ix.normalized(query)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	// All stored vectors are unit length, so the inner product is the
	// cosine similarity.
	results := make([]Result, len(ix.rows))
	for i, row := range ix.rows {
		var dot float64
		for j, v := range row {
			dot += float64(v) * float64(unit[j])
		}
		results[i] = Result{ArticleID: ix.ids[i], Score: dot}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// SearchByArticle finds the articles most similar to the given one. The
// query embedding is loaded from the persistent store; the article itself is
// excluded from the results.
func (ix *Index) SearchByArticle(articleID int64, k int) ([]Result, error) {
	vector, err := ix.store.GetEmbedding(articleID)
	if err != nil {
		return nil, err
	}

	hits, err := ix.Search(vector, k+1)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, k)
	for _, hit := range hits {
		if hit.ArticleID == articleID {
			continue
		}
		results = append(results, hit)
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// SearchByUserProfile derives a profile vector as the unweighted mean of the
// user's read-history embeddings, searches with an inflated candidate count,
// removes already-read articles, drops anything outside the freshness window
// and truncates to k, preserving descending similarity.
func (ix *Index) SearchByUserProfile(userID int64, k int) ([]Result, error) {
	readVectors, err := ix.store.ListReadEmbeddings(userID)
	if err != nil {
		return nil, err
	}
	if len(readVectors) == 0 {
		return nil, nil
	}

	profile := make([]float32, ix.dim)
	counted := 0
	for _, sv := range readVectors {
		if len(sv.Vector) != ix.dim {
			log.Printf("Warning: skipping embedding with dim %d for article %d", len(sv.Vector), sv.ArticleID)
			continue
		}
		for i, v := range sv.Vector {
			profile[i] += v
		}
		counted++
	}
	if counted == 0 {
		return nil, nil
	}
	for i := range profile {
		profile[i] /= float32(counted)
	}

	readIDs, err := ix.store.ListReadArticleIDs(userID)
	if err != nil {
		return nil, err
	}
	read := make(map[int64]bool, len(readIDs))
	for _, id := range readIDs {
		read[id] = true
	}

	// Over-fetch so read and stale entries can be dropped without
	// starving the final result.
	candidates := k*ix.profileMultiplier + len(readIDs)
	hits, err := ix.Search(profile, candidates)
	if err != nil {
		return nil, err
	}

	unread := make([]Result, 0, len(hits))
	unreadIDs := make([]int64, 0, len(hits))
	for _, hit := range hits {
		if read[hit.ArticleID] {
			continue
		}
		unread = append(unread, hit)
		unreadIDs = append(unreadIDs, hit.ArticleID)
	}

	fresh, err := ix.store.FilterFresh(unreadIDs, time.Now().UTC().Add(-ix.freshnessWindow))
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, k)
	for _, hit := range unread {
		if !fresh[hit.ArticleID] {
			continue
		}
		results = append(results, hit)
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.ids)
}

// normalized validates the dimensionality and returns a unit-length copy.
func (ix *Index) normalized(vector []float32) ([]float32, error) {
	if len(vector) != ix.dim {
		return nil, models.NewValidationError("vector has %d dimensions, want %d", len(vector), ix.dim)
	}

	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return nil, models.NewValidationError("cannot normalize zero vector")
	}

	unit := make([]float32, len(vector))
	for i, v := range vector {
		unit[i] = float32(float64(v) / norm)
	}
	return unit, nil
}
