package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brmartins/sabia/internal/reliability"
)

const (
	defaultTimeout = 30 * time.Second
	maxAttempts    = 3
	backoffBase    = 200 * time.Millisecond
	backoffCap     = 2 * time.Second
)

// HTTPClient talks to an OpenAI-style chat-completions endpoint.
type HTTPClient struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		url:    strings.TrimSpace(cfg.URL),
		apiKey: strings.TrimSpace(cfg.APIKey),
		client: &http.Client{Timeout: timeout},
	}
}

type wireRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	// Some backends answer with a bare field instead of choices.
	Text   string `json:"text"`
	Output string `json:"output"`
}

func (c *HTTPClient) Complete(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(wireRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		Messages:    req.Messages,
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt-1, backoffBase, backoffCap)):
			}
		}

		resp, retryable, err := c.attempt(ctx, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			return Response{}, err
		}
	}
	return Response{}, lastErr
}

func (c *HTTPClient) attempt(ctx context.Context, payload []byte) (Response, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, true, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		err := fmt.Errorf("llm http status %d: %s", res.StatusCode, string(body))
		return Response{}, reliability.IsRetryableHTTPStatus(res.StatusCode), err
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, true, fmt.Errorf("read response: %w", err)
	}

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		// Plain-text backends are tolerated.
		text := strings.TrimSpace(string(body))
		if text == "" {
			return Response{}, false, fmt.Errorf("empty llm response")
		}
		return Response{Text: text}, false, nil
	}

	text := extractText(wire)
	if text == "" {
		return Response{}, false, fmt.Errorf("llm response carried no text")
	}
	return Response{Text: text}, false, nil
}

func extractText(wire wireResponse) string {
	for _, choice := range wire.Choices {
		if t := strings.TrimSpace(choice.Message.Content); t != "" {
			return t
		}
		if t := strings.TrimSpace(choice.Text); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(wire.Text); t != "" {
		return t
	}
	return strings.TrimSpace(wire.Output)
}
