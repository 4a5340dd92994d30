package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"newslens/internal/config"
	"newslens/internal/models"

	"github.com/sashabaranov/go-openai"
)

// maxInputChars bounds the text sent to the models; article bodies can be
// arbitrarily long and only the opening carries the signal we need.
const maxInputChars = 2048

// maxKeywords is how many tags a single article receives.
const maxKeywords = 3

// Client implements all three collaborators over the OpenAI API. A custom
// base URL lets a local inference gateway stand in for the hosted service.
type Client struct {
	api            *openai.Client
	embeddingModel string
	chatModel      string
	dim            int
}

func NewClient(cfg config.AIConfig, dim int) *Client {
	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:            openai.NewClientWithConfig(apiConfig),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		dim:            dim,
	}
}

// Encode returns a fixed-length embedding for the text.
func (c *Client) Encode(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{truncate(text)},
		Model:      openai.EmbeddingModel(c.embeddingModel),
		Dimensions: c.dim,
	})
	if err != nil {
		return nil, &models.ComputeError{Op: "encode", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &models.ComputeError{Op: "encode", Err: fmt.Errorf("empty embedding response")}
	}
	return resp.Data[0].Embedding, nil
}

// Classify labels the text as neutral reporting or opinionated writing.
// Empty input and unparseable model answers degrade to UNKNOWN/NEUTRAL so a
// flaky verdict never fails a pipeline run; transport errors do propagate.
func (c *Client) Classify(ctx context.Context, text string) (BiasResult, error) {
	if strings.TrimSpace(text) == "" {
		return BiasResult{Label: models.BiasUnknown, Score: 0}, nil
	}

	prompt := fmt.Sprintf(`Judge whether the following news text is factual reporting or opinionated, one-sided writing.
Answer with JSON only: {"label": "NEUTRAL" or "BIASED", "score": confidence between 0 and 1}

Text:
%s`, truncate(text))

	answer, err := c.complete(ctx, "You classify news articles for editorial bias.", prompt)
	if err != nil {
		return BiasResult{}, &models.ComputeError{Op: "classify", Err: err}
	}

	var parsed struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(answer), &parsed); err != nil {
		return BiasResult{Label: models.BiasNeutral, Score: 0}, nil
	}

	label := models.BiasLabel(strings.ToUpper(strings.TrimSpace(parsed.Label)))
	if label != models.BiasBiased && label != models.BiasNeutral {
		label = models.BiasNeutral
	}
	score := parsed.Score
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return BiasResult{Label: label, Score: score}, nil
}

// Tag ranks the candidate labels by relevance to the text and returns the
// best matches, model order preserved.
func (c *Client) Tag(ctx context.Context, text string, candidates []string) ([]string, error) {
	if strings.TrimSpace(text) == "" || len(candidates) == 0 {
		return nil, nil
	}

	prompt := fmt.Sprintf(`Pick the labels that best describe the following news text.
Choose only from this list: %s
Answer with JSON only: {"labels": [most relevant first, at most %d entries]}

Text:
%s`, strings.Join(candidates, ", "), maxKeywords, truncate(text))

	answer, err := c.complete(ctx, "You tag news articles with category labels.", prompt)
	if err != nil {
		return nil, &models.ComputeError{Op: "tag", Err: err}
	}

	var parsed struct {
		Labels []string `json:"labels"`
	}
	if err := json.Unmarshal([]byte(answer), &parsed); err != nil {
		return nil, &models.ComputeError{Op: "tag", Err: fmt.Errorf("unparseable answer: %q", answer)}
	}

	// Keep only known candidates, ranked as the model returned them
	allowed := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		allowed[strings.ToLower(cand)] = true
	}

	var keywords []string
	seen := make(map[string]bool)
	for _, label := range parsed.Labels {
		normalized := strings.ToLower(strings.TrimSpace(label))
		if !allowed[normalized] || seen[normalized] {
			continue
		}
		seen[normalized] = true
		keywords = append(keywords, normalized)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxInputChars {
		return text
	}
	return string(runes[:maxInputChars])
}
