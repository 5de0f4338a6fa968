// Package textnorm turns questions and course documents into the
// lowercase, stopword-free token strings the similarity index is fit on.
package textnorm

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// wordRun matches a maximal run of word characters.
var wordRun = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Normalizer lowercases, tokenizes and drops stopwords. Safe for concurrent use.
type Normalizer struct {
	stopwords map[string]struct{}
}

// New creates a Normalizer over the given stopword set.
// A nil set disables stopword removal.
func New(stopwords map[string]struct{}) *Normalizer {
	return &Normalizer{stopwords: stopwords}
}

// Normalize returns the surviving tokens of text joined by single spaces.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}

	tokens := Tokenize(Lower(text))
	kept := tokens[:0]
	for _, tok := range tokens {
		if n.IsStopword(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// NormalizeValue normalizes the string form of v. Nil yields "".
func (n *Normalizer) NormalizeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return n.Normalize(val)
	case fmt.Stringer:
		return n.Normalize(val.String())
	default:
		return n.Normalize(fmt.Sprint(val))
	}
}

// IsStopword reports whether tok (already lowercased) is in the stopword set.
func (n *Normalizer) IsStopword(tok string) bool {
	_, ok := n.stopwords[tok]
	return ok
}

// StopwordCount returns the size of the stopword set.
func (n *Normalizer) StopwordCount() int {
	return len(n.stopwords)
}

// Tokenize splits s into maximal runs of letters, digits and underscores.
func Tokenize(s string) []string {
	return wordRun.FindAllString(s, -1)
}

// Lower lowercases s with Turkish rules: I becomes ı and İ becomes i.
func Lower(s string) string {
	// cases.Caser keeps state, so one per call.
	return cases.Lower(language.Turkish).String(s)
}

// Capitalize upper-cases the first rune of word with Turkish rules.
func Capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return cases.Upper(language.Turkish).String(string(r)) + word[size:]
}
