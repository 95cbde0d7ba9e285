package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "Strong fit", limit: 0, expect: ""},
		{name: "fits", input: "Strong fit", limit: 20, expect: "Strong fit"},
		{name: "truncated", input: "Any remote jobs?", limit: 10, expect: "Any remote..."},
		{name: "multibyte runes", input: "résumé analysis", limit: 6, expect: "résumé..."},
		{name: "trimmed first", input: "   hi   ", limit: 2, expect: "hi"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestFirstLine(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                        "",
		"single":                  "single",
		"\n\n  second line \nrest": "second line",
		"   \n\t\n":               "",
	}

	for input, expect := range tests {
		if got := FirstLine(input); got != expect {
			t.Fatalf("FirstLine(%q): expected %q, got %q", input, expect, got)
		}
	}
}
