package eval

import (
	"strings"
	"unicode"
)

// Claim is a factual assertion extracted from an answer.
type Claim struct {
	// Text is the claim sentence as it appeared in the answer.
	Text string
	// Heuristic names the extraction rule that matched.
	Heuristic string
	// Sentence is the 0-based sentence index in the answer.
	Sentence int
}

// assertionVerbs mark a sentence as stating a fact rather than hedging
// or meta-commentary. Matched against lowercased whole words.
var assertionVerbs = map[string]string{
	"is":         "copula",
	"are":        "copula",
	"was":        "copula",
	"were":       "copula",
	"has":        "possession",
	"have":       "possession",
	"had":        "possession",
	"introduced": "origin",
	"originated": "origin",
	"invented":   "origin",
	"created":    "attribution",
	"founded":    "attribution",
	"wrote":      "attribution",
	"published":  "attribution",
	"means":      "definition",
	"refers":     "definition",
	"defines":    "definition",
	"reduces":    "effect",
	"causes":     "effect",
	"uses":       "mechanism",
	"requires":   "mechanism",
}

// hedgePrefixes identify sentences that disclaim rather than assert.
var hedgePrefixes = []string{
	"i don't",
	"i do not",
	"i'm not sure",
	"i am not sure",
	"i cannot",
	"i can't",
	"it depends",
	"unfortunately",
}

// ExtractClaims splits an answer into sentences and keeps the ones that
// assert a checkable fact. Questions, hedges, and sentences with no
// assertion verb or figure are discarded.
func ExtractClaims(answer string) []Claim {
	var claims []Claim
	for i, sentence := range splitSentences(answer) {
		if heuristic, ok := isAssertion(sentence); ok {
			claims = append(claims, Claim{Text: sentence, Heuristic: heuristic, Sentence: i})
		}
	}
	return claims
}

func isAssertion(sentence string) (string, bool) {
	trimmed := strings.TrimSpace(sentence)
	if trimmed == "" || strings.HasSuffix(trimmed, "?") {
		return "", false
	}

	lower := strings.ToLower(trimmed)
	for _, p := range hedgePrefixes {
		if strings.HasPrefix(lower, p) {
			return "", false
		}
	}

	for _, word := range tokenize(lower) {
		if kind, ok := assertionVerbs[word]; ok {
			return "verb:" + kind, true
		}
	}

	// A sentence carrying a number is usually asserting something
	// checkable even without a recognised verb.
	if strings.IndexFunc(trimmed, unicode.IsDigit) >= 0 {
		return "figure", true
	}

	return "", false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// splitSentences breaks text on terminal punctuation. Citation markers
// like "[1]" stay attached to their sentence.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			// Consume trailing punctuation and citation markers.
			end := i + 1
			for end < len(runes) && (runes[end] == ')' || runes[end] == ']' || runes[end] == '"') {
				end++
			}
			s := strings.TrimSpace(string(runes[start:end]))
			if s != "" {
				sentences = append(sentences, s)
			}
			i = end - 1
			start = end
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
