package normalize

import "testing"

func TestNormalizeBasic(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Printer won't turn ON!  ", "printer wont turn on"},
		{"COMO   RESETAR a senha?", "como resetar a senha"},
		{"hello", "hello"},
		{"", ""},
		{"   \t\n ", ""},
		{"!!!???...", ""},
		{"wi-fi não conecta", "wifi não conecta"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"  Printer won't turn ON!  ",
		"a  b   c",
		"já normalizado",
		"MIXED case, With; Punct.",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(" ?! ") {
		t.Fatalf("IsBlank(\" ?! \") = false, want true")
	}
	if IsBlank("ok") {
		t.Fatalf("IsBlank(\"ok\") = true, want false")
	}
}
