// Package llm is the contract with the hosted generative fallback: the
// resolver hands it a role-tagged prompt and gets a single text completion
// back. Transport failures are returned as errors for the resolver to degrade.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Message is one role-tagged prompt entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is the normalized generation request.
type Request struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
}

// Response is the single text completion.
type Response struct {
	Text string `json:"text"`
}

// Client invokes the generation backend.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Config controls client construction. Model and temperature travel on each
// Request, not here.
type Config struct {
	Mode    string
	URL     string
	APIKey  string
	Timeout time.Duration
}

// NewClient builds a client for the configured mode. "auto" picks the HTTP
// backend when a URL is set and the mock otherwise.
func NewClient(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.URL) != "" {
			return NewHTTPClient(cfg), nil
		}
		return NewMockClient(), nil
	case "http":
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, errors.New("llm URL is required for http mode")
		}
		return NewHTTPClient(cfg), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported llm mode %q", cfg.Mode)
	}
}
