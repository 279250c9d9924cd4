package policy

import (
	"strings"
	"testing"
)

func TestRedactPII(t *testing.T) {
	input := "Meu email é joao@example.com, telefone +55 (11) 91234-5678, cartão 4242 4242 4242 4242."
	out, changed := RedactPII(input)
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
}

func TestRedactCPF(t *testing.T) {
	out, changed := RedactPII("segue meu CPF 123.456.789-09 para o chamado")
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	if !strings.Contains(out, "[REDACTED_CPF]") {
		t.Fatalf("output missing CPF marker: %q", out)
	}
}

func TestRedactCleanTextUnchanged(t *testing.T) {
	in := "a impressora não liga depois da atualização"
	out, changed := RedactPII(in)
	if changed || out != in {
		t.Fatalf("RedactPII(%q) = (%q, %v), want unchanged", in, out, changed)
	}
}
