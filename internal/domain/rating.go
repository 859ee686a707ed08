package domain

import (
	"regexp"
	"strings"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ratingPattern is the only trigger for treating a prompt as a rating: a
// single digit 1-5, optionally padded with whitespace.
var ratingPattern = regexp.MustCompile(`^\s*([1-5])\s*$`)

// ParseRating returns the rating carried by a prompt and whether the prompt
// matches the rating grammar.
func ParseRating(prompt string) (string, bool) {
	m := ratingPattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
