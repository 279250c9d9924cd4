package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockClient provides deterministic local replies when no backend is
// configured.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Complete(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}

	question := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			question = strings.TrimSpace(req.Messages[i].Content)
			break
		}
	}
	if question == "" {
		return Response{Text: "Como posso ajudar?"}, nil
	}
	return Response{Text: fmt.Sprintf("Sobre %q: tente reiniciar o equipamento e verificar os cabos.", question)}, nil
}
