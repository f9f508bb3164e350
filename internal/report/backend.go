package report

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Backend turns a prompt into narrative text. Implementations may fail; the
// renderer treats any failure as a signal to fall back to the deterministic
// template.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HTTPBackend posts prompts to an Ollama-style generation endpoint.
type HTTPBackend struct {
	client *resty.Client
	model  string
}

func NewHTTPBackend(baseURL, model string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
		model: model,
	}
}

func (b *HTTPBackend) Generate(ctx context.Context, prompt string) (string, error) {
	var out struct {
		Response string `json:"response"`
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"model":  b.model,
			"prompt": prompt,
			"stream": false,
		}).
		SetResult(&out).
		Post("/api/generate")
	if err != nil {
		return "", errors.Wrap(err, "report backend request")
	}
	if resp.IsError() {
		return "", fmt.Errorf("report backend returned status %d", resp.StatusCode())
	}
	if out.Response == "" {
		return "", errors.New("report backend returned an empty response")
	}
	return out.Response, nil
}
