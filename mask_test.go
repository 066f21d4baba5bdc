package authcore

import "testing"

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"tom@example.com": "t***@example.com",
		"jo@example.com":  "j***@example.com",
		"a@example.com":   "***",
		"no-at-sign":      "***",
		"":                "***",
		"élodie@ex.fr":    "é***@ex.fr",
	}
	for in, want := range tests {
		if got := maskEmail(in); got != want {
			t.Errorf("maskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
