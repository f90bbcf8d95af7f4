package domain

import (
	"strconv"
	"strings"
	"unicode"
)

// NormalizeOpponent lowercases name and drops every rune that is not a letter, digit or underscore.
func NormalizeOpponent(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// MatchKey identifies a match across sources and polls: timestamp, normalized opponent, score.
func MatchKey(m MatchRecord) string {
	return strconv.FormatInt(m.Timestamp, 10) + "_" + NormalizeOpponent(m.OpponentName) + "_" + m.Score
}
