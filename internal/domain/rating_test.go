package domain

import "testing"

func TestParseRating(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
		ok     bool
	}{
		{"1", "1", true},
		{"5", "5", true},
		{"  3  ", "3", true},
		{"\n4\n", "4", true},
		{"\t2", "2", true},
		{"0", "", false},
		{"6", "", false},
		{"55", "", false},
		{"5 stars", "", false},
		{"rate 5", "", false},
		{"", "", false},
		{"   ", "", false},
		{"4.5", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			got, ok := ParseRating(tt.prompt)
			assertEqual(t, "ok", tt.ok, ok)
			assertEqual(t, "rating", tt.want, got)
		})
	}
}
