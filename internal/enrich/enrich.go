// Package enrich resolves a respondent's optional professional-profile link
// into structured background data for the AI scorer. Unavailability is
// normal and is reported as absence, never as a run failure.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	lookupPath     = "/lookup"
	defaultTimeout = 10 * time.Second
)

// Background is the structured professional/education data for one
// respondent, as returned by the lookup service.
type Background struct {
	Role         string   `json:"role"`
	Organization string   `json:"organization"`
	Education    string   `json:"education"`
	Skills       []string `json:"skills"`
}

type Client struct {
	baseURL    string
	logger     *zap.Logger
	HTTPClient *http.Client
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Resolve fetches background data for the given profile link. A blank link,
// a failed request or a non-200 answer all return (nil, nil): enrichment is
// best-effort and its absence must not degrade the run.
func (c *Client) Resolve(ctx context.Context, profileURL string) (*Background, error) {
	profileURL = strings.TrimSpace(profileURL)
	if profileURL == "" || c.baseURL == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("url", profileURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+lookupPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.URL.RawQuery = q.Encode()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("enrichment lookup failed", zap.String("profile_url", profileURL), zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("enrichment lookup unavailable",
			zap.String("profile_url", profileURL),
			zap.String("status", resp.Status),
		)
		return nil, nil
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.logger.Debug("enrichment response unparsable", zap.String("profile_url", profileURL), zap.Error(err))
		return nil, nil
	}

	var background Background
	if err := mapstructure.Decode(raw, &background); err != nil {
		c.logger.Debug("enrichment response has unexpected shape", zap.Error(err))
		return nil, nil
	}

	if background.Role == "" && background.Organization == "" &&
		background.Education == "" && len(background.Skills) == 0 {
		return nil, nil
	}

	return &background, nil
}
