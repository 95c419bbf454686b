package gemini

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel      = "gemini-2.5-pro"
	defaultMaxRetries = 3

	baseRetryDelay = 500 * time.Millisecond
	maxRetryDelay  = 8 * time.Second
)

// sleep is a variable so tests can avoid real backoff delays.
var sleep = time.Sleep

// contentCaller abstracts the genai model call for testing.
type contentCaller interface {
	generate(ctx context.Context, model, prompt string) (*genai.GenerateContentResponse, error)
}

type apiCaller struct {
	client *genai.Client
}

func (c *apiCaller) generate(ctx context.Context, model, prompt string) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
}

// Generator wraps the Google GenAI client with bounded retries for
// rate-limit and transient server errors.
type Generator struct {
	caller     contentCaller
	model      string
	maxRetries int
	logger     *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, logger *zap.Logger) (*Generator, error) {
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
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		caller:     &apiCaller{client: client},
		model:      model,
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

// GenerateContent sends the prompt to Gemini and returns the concatenated
// textual response. Transient failures are retried with exponential backoff
// and jitter up to the configured retry ceiling.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.caller == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	var lastErr error
	delay := baseRetryDelay

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		resp, err := g.caller.generate(ctx, g.model, prompt)
		if err == nil {
			return collectText(resp)
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !Retryable(err) || attempt == g.maxRetries {
			break
		}

		wait := delay + time.Duration(rand.Int63n(int64(delay)/2+1))
		g.logger.Debug("retrying gemini request",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		sleep(wait)

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Retryable reports whether the error is a rate-limit or transient server
// error worth another attempt. Parse and auth failures are permanent.
func Retryable(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == 429 || apiErr.Code >= 500
}

func collectText(resp *genai.GenerateContentResponse) (string, error) {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}
