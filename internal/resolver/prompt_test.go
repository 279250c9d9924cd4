package resolver

import (
	"strings"
	"testing"

	"github.com/brmartins/sabia/internal/knowledge"
	"github.com/brmartins/sabia/internal/llm"
	"github.com/brmartins/sabia/internal/memory"
)

func TestBuildPromptShape(t *testing.T) {
	samples := []knowledge.Entry{
		{Question: "impressora não liga", Answer: "Verifique o cabo"},
	}
	context := []memory.Turn{
		{Question: "oi", Answer: "Olá! Como posso ajudar?"},
		{Question: "meu pc travou", Answer: "Tente reiniciar."},
	}

	msgs := BuildPrompt("persona de teste", samples, context, "e agora a tela ficou azul")

	// system + 2 context turns (user+assistant each) + final question.
	if len(msgs) != 6 {
		t.Fatalf("len(msgs) = %d, want 6", len(msgs))
	}
	if msgs[0].Role != llm.RoleSystem {
		t.Fatalf("msgs[0].Role = %q, want system", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, "persona de teste") {
		t.Fatalf("system message missing persona: %q", msgs[0].Content)
	}
	if !strings.Contains(msgs[0].Content, "Problema: impressora não liga") {
		t.Fatalf("system message missing sample pair: %q", msgs[0].Content)
	}

	for i, wantRole := range []string{llm.RoleUser, llm.RoleAssistant, llm.RoleUser, llm.RoleAssistant} {
		if msgs[1+i].Role != wantRole {
			t.Fatalf("msgs[%d].Role = %q, want %q", 1+i, msgs[1+i].Role, wantRole)
		}
	}

	last := msgs[len(msgs)-1]
	if last.Role != llm.RoleUser || last.Content != "e agora a tela ficou azul" {
		t.Fatalf("final message = %+v, want the new question as user", last)
	}
}

func TestBuildPromptWithoutContextOrSamples(t *testing.T) {
	msgs := BuildPrompt("p", nil, nil, "pergunta")
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if strings.Contains(msgs[0].Content, "Exemplos") {
		t.Fatalf("system message advertises samples when there are none: %q", msgs[0].Content)
	}
}
