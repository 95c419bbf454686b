package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusmatch/matchmaker/internal/utils"

	"google.golang.org/genai"
)

const (
	defaultEmbeddingModel = "gemini-embedding-001"

	embedMaxRetries = 3
	embedBaseDelay  = 500
)

// Gemini obtains embeddings from the Gemini API. Embeddings for a fixed
// model and input are stable, which the deterministic scorer relies on.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed embedder.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultEmbeddingModel
	}

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	var lastErr error
	for attempt := 1; attempt <= embedMaxRetries; attempt++ {
		resp, err := g.client.Models.EmbedContent(ctx, g.model, genai.Text(text), nil)
		if err == nil {
			if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
				return nil, errors.New("gemini api returned empty embedding")
			}
			return resp.Embeddings[0].Values, nil
		}

		lastErr = err
		if !retryableAPIError(err) || attempt == embedMaxRetries {
			break
		}

		delay := time.Duration(embedBaseDelay<<(attempt-1)) * time.Millisecond
		if waitErr := utils.WaitFor(ctx, delay); waitErr != nil {
			return nil, waitErr
		}
	}

	return nil, fmt.Errorf("embed content: %w", lastErr)
}

func (g *Gemini) Provider() string {
	return ProviderGemini
}

func retryableAPIError(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == 429 || apiErr.Code >= 500
}
