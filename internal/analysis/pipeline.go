package analysis

import (
	"context"
	"log"

	"newslens/internal/ai"
	"newslens/internal/models"
	"newslens/internal/storage"
)

// Index receives vectors of COMPLETED articles.
type Index interface {
	Add(articleID int64, vector []float32) error
}

// Clusterer groups FILTERED articles.
type Clusterer interface {
	Assign(articleID int64, vector []float32) (int64, error)
}

// Pipeline drives per-article AI processing through the three-stage state
// machine PENDING -> PROCESSING -> {COMPLETED, FILTERED, FAILED}. Each
// trigger runs in its own goroutine; idempotency rests on the PROCESSING
// status guard alone.
type Pipeline struct {
	store      storage.Storage
	encoder    ai.EmbeddingEncoder
	classifier ai.BiasClassifier
	tagger     ai.KeywordTagger
	index      Index
	clusterer  Clusterer

	candidateLabels []string
	embeddingDim    int
}

func New(store storage.Storage, encoder ai.EmbeddingEncoder, classifier ai.BiasClassifier, tagger ai.KeywordTagger, index Index, clusterer Clusterer, candidateLabels []string, embeddingDim int) *Pipeline {
	return &Pipeline{
		store:           store,
		encoder:         encoder,
		classifier:      classifier,
		tagger:          tagger,
		index:           index,
		clusterer:       clusterer,
		candidateLabels: candidateLabels,
		embeddingDim:    embeddingDim,
	}
}

// ProcessAsync spawns a background processing run for the article. The
// trigger path never blocks on AI work; callers poll the analysis record to
// learn the outcome.
func (p *Pipeline) ProcessAsync(articleID int64) {
	go func() {
		status, err := p.Process(articleID)
		if err != nil {
			log.Printf("Analysis of article %d ended with status %s: %v", articleID, status, err)
			return
		}
		log.Printf("Analysis of article %d finished with status %s", articleID, status)
	}()
}

// Process runs one analysis attempt for the article and returns the status
// the record was left in. Re-triggering a record that is PROCESSING,
// COMPLETED or FILTERED is a no-op returning the current status. FAILED
// records are retried from scratch.
//
// The status check and the PROCESSING write span two transactions, so two
// concurrent triggers can both observe PENDING before either commits. That
// race duplicates AI work but never corrupts state: the final status write
// is a single fully-formed transaction. Accepted for single-process
// deployments.
func (p *Pipeline) Process(articleID int64) (models.AnalysisStatus, error) {
	record, err := p.store.GetAnalysisRecord(articleID)
	if err != nil {
		return "", err
	}

	// Idempotent guard against duplicate triggers
	switch record.Status {
	case models.StatusProcessing, models.StatusCompleted, models.StatusFiltered:
		return record.Status, nil
	}

	article, err := p.store.GetArticle(articleID)
	if err != nil {
		// Record stays PENDING and retryable by a future trigger
		return record.Status, err
	}

	// Claim the record before any AI work so concurrent triggers observe it
	if err := p.store.MarkProcessing(articleID); err != nil {
		return record.Status, err
	}

	// Compute stage. No cancellation at this layer: once a run starts it
	// proceeds to a terminal state. Timeouts belong to the AI clients.
	ctx := context.Background()

	keywords, err := p.tagger.Tag(ctx, article.Description, p.candidateLabels)
	if err != nil {
		return p.fail(articleID, err)
	}

	bias, err := p.classifier.Classify(ctx, article.Description)
	if err != nil {
		return p.fail(articleID, err)
	}

	// The embedding is computed regardless of the bias outcome; clustering
	// needs it for biased articles too.
	vector, err := p.encoder.Encode(ctx, article.Description)
	if err != nil {
		return p.fail(articleID, err)
	}
	if len(vector) != p.embeddingDim {
		return p.fail(articleID, models.NewValidationError("encoder returned %d dimensions, want %d", len(vector), p.embeddingDim))
	}

	status := models.StatusCompleted
	if bias.Label == models.BiasBiased {
		status = models.StatusFiltered
	}

	// Persist stage: keywords, embedding and verdict land atomically
	result := &models.AnalysisResult{
		Keywords:  keywords,
		Vector:    vector,
		BiasLabel: bias.Label,
		BiasScore: bias.Score,
		Status:    status,
	}
	if err := p.store.SaveAnalysisResult(articleID, result); err != nil {
		return p.fail(articleID, err)
	}

	if status == models.StatusFiltered {
		if _, err := p.clusterer.Assign(articleID, vector); err != nil {
			log.Printf("Warning: cluster assignment for article %d failed: %v", articleID, err)
		}
	} else {
		if err := p.index.Add(articleID, vector); err != nil {
			log.Printf("Warning: failed to index article %d: %v", articleID, err)
		}
	}

	return status, nil
}

// fail marks the record FAILED in its own short transaction. A secondary
// failure here is logged only, never escalated.
func (p *Pipeline) fail(articleID int64, cause error) (models.AnalysisStatus, error) {
	if err := p.store.MarkFailed(articleID); err != nil {
		log.Printf("Warning: failed to mark article %d as FAILED: %v", articleID, err)
	}
	return models.StatusFailed, cause
}
