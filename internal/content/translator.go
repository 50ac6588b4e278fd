package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agilestore/agilestore-backend/pkg/config"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

// TranslatorClient calls the upstream machine-translation endpoint.
type TranslatorClient interface {
	TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error)
}

type translatorClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logg       *logger.Logger
}

type translateRequest struct {
	Texts  []string `json:"texts"`
	Source string   `json:"source"`
	Target string   `json:"target"`
}

type translateResponse struct {
	Translations []string `json:"translations"`
}

// NewTranslatorClient builds the upstream translator wrapper. An empty
// endpoint yields a disabled client whose calls always error, which the
// content service turns into the fail-soft echo.
func NewTranslatorClient(cfg config.TranslatorConfig, logg *logger.Logger) (TranslatorClient, error) {
	if logg == nil {
		return nil, fmt.Errorf("translator logger is required")
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &translatorClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logg:       logg,
	}, nil
}

func (c *translatorClient) TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("translator endpoint not configured")
	}

	body, err := json.Marshal(translateRequest{Texts: texts, Source: source, Target: target})
	if err != nil {
		return nil, fmt.Errorf("encode translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call translator: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("translator returned status %d", resp.StatusCode)
	}

	var decoded translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode translate response: %w", err)
	}
	if len(decoded.Translations) != len(texts) {
		return nil, fmt.Errorf("translator returned %d results for %d texts", len(decoded.Translations), len(texts))
	}
	return decoded.Translations, nil
}
