package generation

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/theakash04/termify/internal/config"
	pkgHttp "github.com/theakash04/termify/pkg/http"
	"go.uber.org/zap"
)

// Service is the text-generation backend: one-shot completions for
// answers and summaries. Implementations must be safe for concurrent use.
type Service interface {
	// Complete generates an answer for a fully built prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// Summarize condenses text into at most maxWords words.
	Summarize(ctx context.Context, text string, maxWords int) (string, error)
}

type completeRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type completeResponse struct {
	Text string `json:"text"`
}

type summarizeRequest struct {
	Model    string `json:"model"`
	Text     string `json:"text"`
	MaxWords int    `json:"max_words"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// Connector talks to the generation service over HTTP.
type Connector struct {
	connector *pkgHttp.Connector
	cfg       config.GenerationConfig
}

var _ Service = (*Connector)(nil)

func NewConnector(cfg config.GenerationConfig, logger *zap.Logger) *Connector {
	httpConnector := pkgHttp.NewConnector(
		&pkgHttp.ConnectorConfig{
			BaseURL: cfg.Url,
			Logger:  logger,
		},
		pkgHttp.WithRequestTimeout(cfg.RequestTimeout),
		pkgHttp.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHttp.WithClientKeepAlive(cfg.KeepAlive),
		pkgHttp.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHttp.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHttp.WithAuthToken(cfg.Token),
		pkgHttp.WithRequestLogging(),
	)

	return &Connector{
		connector: httpConnector,
		cfg:       cfg,
	}
}

func (c *Connector) Complete(ctx context.Context, prompt string) (string, error) {
	req := completeRequest{
		Model:       c.cfg.Model,
		Prompt:      prompt,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
	}

	var resp completeResponse
	// Completions are not idempotent in cost but are in effect; retry only
	// transport-level failures.
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, nethttp.MethodPost, c.cfg.CompleteEndpoint, req, &resp)
	}, c.retryOpts(ctx)...)
	if err != nil {
		return "", fmt.Errorf("generation complete: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("generation complete: empty response")
	}
	return text, nil
}

func (c *Connector) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	req := summarizeRequest{
		Model:    c.cfg.Model,
		Text:     text,
		MaxWords: maxWords,
	}

	var resp summarizeResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, nethttp.MethodPost, c.cfg.SummarizeEndpoint, req, &resp)
	}, c.retryOpts(ctx)...)
	if err != nil {
		return "", fmt.Errorf("generation summarize: %w", err)
	}

	return strings.TrimSpace(resp.Summary), nil
}

func (c *Connector) retryOpts(ctx context.Context) []retry.Option {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	}
	return append(opts, c.cfg.Retry.ToRetryOptions()...)
}

// isRetryable allows retries on network failures and server-side errors,
// never on 4xx responses.
func isRetryable(err error) bool {
	var httpErr *pkgHttp.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	return true
}
