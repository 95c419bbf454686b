package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	cases := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{name: "short", input: "hello", limit: 10, want: "hello"},
		{name: "exact", input: "hello", limit: 5, want: "hello"},
		{name: "truncated", input: "hello world", limit: 5, want: "hello..."},
		{name: "zero limit", input: "hello", limit: 0, want: ""},
		{name: "trims whitespace", input: "  hello  ", limit: 10, want: "hello"},
		{name: "multibyte", input: "привет мир", limit: 6, want: "привет..."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateForLog(tc.input, tc.limit); got != tc.want {
				t.Fatalf("TruncateForLog(%q, %d) = %q, want %q", tc.input, tc.limit, got, tc.want)
			}
		})
	}
}
