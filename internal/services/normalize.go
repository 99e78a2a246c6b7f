package services

import (
	"fmt"
	"regexp"
	"strings"
)

// standardOnlyPattern accepts any Unicode space and decimal digit, so
// "standard\u00a05" and "standard ٥" match too. Digits are kept as typed.
var standardOnlyPattern = regexp.MustCompile(`(?i)^standard[\s\p{Zs}]+(\p{Nd}+)$`)

// NormalizedQuery is the text sent to the embedder. StandardNumber is set
// when the question was a bare "standard N".
type NormalizedQuery struct {
	Query          string
	StandardNumber string
}

// HasStandard reports whether the question named a single standard.
func (q NormalizedQuery) HasStandard() bool {
	return q.StandardNumber != ""
}

// Normalize expands a bare "standard N" into a full question, which embeds
// far better than two tokens. Anything else passes through trimmed.
func Normalize(question string) NormalizedQuery {
	trimmed := strings.TrimSpace(question)
	m := standardOnlyPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return NormalizedQuery{Query: trimmed}
	}
	return NormalizedQuery{
		Query:          fmt.Sprintf("What is AAOIFI Standard %s about?", m[1]),
		StandardNumber: m[1],
	}
}
