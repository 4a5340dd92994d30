package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newslens/internal/config"
	"newslens/internal/models"
)

// newFakeAPI serves canned chat and embedding responses in the OpenAI wire
// format so the client can be exercised without the hosted service.
func newFakeAPI(t *testing.T, chatAnswer string, embedding []float32) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			resp := map[string]interface{}{
				"id":     "test",
				"object": "chat.completion",
				"model":  "test-chat",
				"choices": []map[string]interface{}{
					{
						"index":         0,
						"finish_reason": "stop",
						"message": map[string]interface{}{
							"role":    "assistant",
							"content": chatAnswer,
						},
					},
				},
			}
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				t.Errorf("Failed to encode chat response: %v", err)
			}
		case strings.HasSuffix(r.URL.Path, "/embeddings"):
			resp := map[string]interface{}{
				"object": "list",
				"model":  "test-embedding",
				"data": []map[string]interface{}{
					{"object": "embedding", "index": 0, "embedding": embedding},
				},
			}
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				t.Errorf("Failed to encode embedding response: %v", err)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	return NewClient(config.AIConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		EmbeddingModel: "test-embedding",
		ChatModel:      "test-chat",
	}, 4)
}

func TestClient_Encode(t *testing.T) {
	client := newFakeAPI(t, "", []float32{0.1, 0.2, 0.3, 0.4})

	vector, err := client.Encode(context.Background(), "some article text")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(vector) != 4 {
		t.Fatalf("Expected 4 dimensions, got %d", len(vector))
	}
}

func TestClient_EncodeTransportError(t *testing.T) {
	client := NewClient(config.AIConfig{
		APIKey:  "test-key",
		BaseURL: "http://127.0.0.1:1", // nothing listens here
	}, 4)

	_, err := client.Encode(context.Background(), "text")
	var computeErr *models.ComputeError
	if !errors.As(err, &computeErr) {
		t.Fatalf("Expected ComputeError, got %v", err)
	}
	if computeErr.Op != "encode" {
		t.Errorf("Expected op 'encode', got '%s'", computeErr.Op)
	}
}

func TestClient_Classify(t *testing.T) {
	client := newFakeAPI(t, `{"label": "BIASED", "score": 0.9}`, nil)

	result, err := client.Classify(context.Background(), "clearly one-sided text")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Label != models.BiasBiased {
		t.Errorf("Expected BIASED, got %s", result.Label)
	}
	if result.Score != 0.9 {
		t.Errorf("Expected score 0.9, got %f", result.Score)
	}
}

func TestClient_ClassifyEmptyText(t *testing.T) {
	// Must not hit the API at all
	client := NewClient(config.AIConfig{APIKey: "test-key", BaseURL: "http://127.0.0.1:1"}, 4)

	result, err := client.Classify(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Label != models.BiasUnknown {
		t.Errorf("Expected UNKNOWN for empty text, got %s", result.Label)
	}
}

func TestClient_ClassifyUnparseableAnswerDegrades(t *testing.T) {
	client := newFakeAPI(t, "the model rambled instead of answering", nil)

	result, err := client.Classify(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Expected graceful degradation, got error: %v", err)
	}
	if result.Label != models.BiasNeutral {
		t.Errorf("Expected NEUTRAL fallback, got %s", result.Label)
	}
	if result.Score != 0 {
		t.Errorf("Expected score 0, got %f", result.Score)
	}
}

func TestClient_ClassifyClampsScore(t *testing.T) {
	client := newFakeAPI(t, `{"label": "NEUTRAL", "score": 1.7}`, nil)

	result, err := client.Classify(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Score != 1 {
		t.Errorf("Expected score clamped to 1, got %f", result.Score)
	}
}

func TestClient_TagFiltersToCandidates(t *testing.T) {
	client := newFakeAPI(t, `{"labels": ["Politics", "aliens", "ECONOMY", "politics", "it", "sports"]}`, nil)

	keywords, err := client.Tag(context.Background(), "some text", []string{"politics", "economy", "it"})
	if err != nil {
		t.Fatalf("Tag failed: %v", err)
	}

	// Unknown labels drop, duplicates collapse, at most three survive
	expected := []string{"politics", "economy", "it"}
	if len(keywords) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, keywords)
	}
	for i := range expected {
		if keywords[i] != expected[i] {
			t.Errorf("Position %d: expected '%s', got '%s'", i, expected[i], keywords[i])
		}
	}
}

func TestClient_TagEmptyInputs(t *testing.T) {
	client := NewClient(config.AIConfig{APIKey: "test-key", BaseURL: "http://127.0.0.1:1"}, 4)

	keywords, err := client.Tag(context.Background(), "", []string{"politics"})
	if err != nil || keywords != nil {
		t.Errorf("Expected nil result for empty text, got %v, %v", keywords, err)
	}

	keywords, err = client.Tag(context.Background(), "text", nil)
	if err != nil || keywords != nil {
		t.Errorf("Expected nil result for no candidates, got %v, %v", keywords, err)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("한", maxInputChars+100)
	truncated := truncate(long)
	if len([]rune(truncated)) != maxInputChars {
		t.Errorf("Expected %d runes, got %d", maxInputChars, len([]rune(truncated)))
	}

	short := "short text"
	if truncate(short) != short {
		t.Error("Expected short text to pass through unchanged")
	}
}
