// Package ai defines the external AI collaborators the analysis pipeline
// depends on: sentence embedding, bias classification and zero-shot keyword
// tagging. The pipeline only sees these interfaces; the OpenAI-backed
// implementations live in openai.go.
package ai

import (
	"context"

	"newslens/internal/models"
)

// BiasResult is the classifier verdict for one text.
type BiasResult struct {
	Label models.BiasLabel
	Score float64
}

// EmbeddingEncoder turns text into a fixed-length vector.
type EmbeddingEncoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// BiasClassifier labels text as NEUTRAL, BIASED or UNKNOWN with a confidence
// score in [0,1].
type BiasClassifier interface {
	Classify(ctx context.Context, text string) (BiasResult, error)
}

// KeywordTagger picks the most relevant labels for a text out of a candidate
// set, best match first.
type KeywordTagger interface {
	Tag(ctx context.Context, text string, candidates []string) ([]string, error)
}
