package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brmartins/sabia/internal/knowledge"
	"github.com/brmartins/sabia/internal/llm"
	"github.com/brmartins/sabia/internal/memory"
)

var errEmptyCompletion = errors.New("empty completion from generator")

const defaultPersona = "Você é um assistente de suporte técnico. Responda em português, " +
	"de forma curta e objetiva, com passos práticos que o usuário consegue seguir sozinho."

// BuildPrompt assembles the fallback prompt: persona preamble, a bounded
// sample of known Problema/Resposta pairs, the recent conversation as
// alternating turns, then the new question.
func BuildPrompt(persona string, samples []knowledge.Entry, context []memory.Turn, question string) []llm.Message {
	var system strings.Builder
	system.WriteString(persona)
	if len(samples) > 0 {
		system.WriteString("\n\nExemplos de problemas já resolvidos:\n")
		for _, e := range samples {
			fmt.Fprintf(&system, "Problema: %s\nResposta: %s\n", e.Question, e.Answer)
		}
	}

	messages := make([]llm.Message, 0, 2+2*len(context))
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system.String()})
	for _, turn := range context {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: turn.Question},
			llm.Message{Role: llm.RoleAssistant, Content: turn.Answer},
		)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})
	return messages
}
