// Package gemini implements the Gemini-backed capabilities: narrative
// completion over the assembled analysis artifacts and text embeddings for
// the clustering stage.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/kryli/TgAnalyzer/internal/config"
)

// Client is the interface the pipeline depends on for Gemini operations.
type Client interface {
	// Complete sends a prompt and returns the generated text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Embed returns one fixed-dimension vector per input text, order-preserving.
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

type sdkClient struct {
	genaiClient    *genai.Client
	log            *slog.Logger
	contentConfig  *genai.GenerateContentConfig
	modelName      string
	embeddingModel string
	maxRetries     int
	retryDelay     time.Duration
}

// NewClient creates a Gemini client. It fails when no API key is configured;
// the caller decides whether that is fatal (the narrative stage treats it as
// capability-unavailable, not as an error).
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	contentCfg := &genai.GenerateContentConfig{
		Temperature: &cfg.Temperature,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: analystSystemInstruction}}},
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.ModelName, "embedding_model", cfg.EmbeddingModel)
	return &sdkClient{
		genaiClient:    gi,
		log:            logger,
		contentConfig:  contentCfg,
		modelName:      cfg.ModelName,
		embeddingModel: cfg.EmbeddingModel,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

func (c *sdkClient) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.generateWithRetries(ctx, contents)
	if err != nil {
		return "", err
	}
	return c.extractText(ctx, resp)
}

func (c *sdkClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	resp, err := c.genaiClient.Models.EmbedContent(ctx, c.embeddingModel, contents, nil)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini embedding call failed", "error", err, "texts", len(texts))
		return nil, fmt.Errorf("gemini embedding call failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vec := make([]float64, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (c *sdkClient) generateWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				time.Sleep(c.retryDelay)
				continue
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (code %d): %w", c.maxRetries, apiErr.Code, err)
		}
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return nil, err
}

func (c *sdkClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
			c.log.ErrorContext(ctx, "Gemini response blocked", "reason", resp.PromptFeedback.BlockReason)
			return "", fmt.Errorf("gemini response blocked: %s", resp.PromptFeedback.BlockReasonMessage)
		}
		return "", fmt.Errorf("gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("gemini candidate has no content parts")
	}

	var text string
	for _, part := range candidate.Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", fmt.Errorf("gemini candidate contains no text")
	}
	return text, nil
}
