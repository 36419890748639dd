// Package translate implements the query translation collaborator against a
// LibreTranslate-compatible HTTP API, with caching, rate limiting and
// de-duplication of concurrent identical requests.
package translate

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/gcbaptista/go-bm25-solver/config"
	internalErrors "github.com/gcbaptista/go-bm25-solver/internal/errors"
	"github.com/gcbaptista/go-bm25-solver/internal/logger"
	"github.com/gcbaptista/go-bm25-solver/internal/metrics"
	"github.com/gcbaptista/go-bm25-solver/internal/tokenizer"
)

// maxResponseBytes bounds the body read from the translation service.
const maxResponseBytes = 1 << 20

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// Client translates text through POST {baseURL}/translate.
// It implements the services.Translator interface.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	group      singleflight.Group
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCache replaces the default in-memory cache.
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMetrics records translation outcomes on m.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client for the service at cfg.URL.
func NewClient(cfg config.TranslationConfig, opts ...ClientOption) *Client {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		cache:      NewMemoryCache(cfg.CacheSize, cfg.CacheTTL),
		logger:     logger.WithComponent("translator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Translate converts text from sourceLang to targetLang. Language tags are
// reduced to their base language (pt-BR -> pt). Text already in the target
// language is returned unchanged. Every failure is a TranslationError.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	source := tokenizer.BaseLanguage(sourceLang)
	target := tokenizer.BaseLanguage(targetLang)
	if strings.TrimSpace(text) == "" || source == target {
		return text, nil
	}

	key := cacheKey(source, target, text)
	if cached, ok := c.cache.Get(ctx, key); ok {
		c.metrics.ObserveTranslation(metrics.OutcomeCacheHit)
		return cached, nil
	}

	// The shared request outlives any single caller; each caller stops
	// waiting on its own context.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if cached, ok := c.cache.Get(flightCtx, key); ok {
			return cached, nil
		}
		translated, err := c.request(flightCtx, text, source, target)
		if err != nil {
			return nil, err
		}
		c.cache.Set(flightCtx, key, translated)
		return translated, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			c.metrics.ObserveTranslation(metrics.OutcomeFailure)
			return "", internalErrors.NewTranslationError(source, target, res.Err)
		}
		c.metrics.ObserveTranslation(metrics.OutcomeSuccess)
		return res.Val.(string), nil
	case <-ctx.Done():
		c.metrics.ObserveTranslation(metrics.OutcomeFailure)
		return "", internalErrors.NewTranslationError(source, target, ctx.Err())
	}
}

func (c *Client) request(ctx context.Context, text, source, target string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(translateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var decoded translateResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != "" {
			return "", fmt.Errorf("status %d: %s", resp.StatusCode, decoded.Error)
		}
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	if decoded.TranslatedText == "" {
		return "", fmt.Errorf("empty translation")
	}

	c.logger.Debug("translated", "source", source, "target", target, "duration", time.Since(start))
	return decoded.TranslatedText, nil
}

func cacheKey(source, target, text string) string {
	hash := sha256.Sum256([]byte(source + "\x00" + target + "\x00" + text))
	return hex.EncodeToString(hash[:16])
}
