// Package textutil provides the tokenization and n-gram helpers shared by the
// preprocessors and feature extractors.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

// Tokenize splits preprocessed text into whitespace-delimited tokens.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// NgramAt returns the n-gram of length n ending at tokens[end], joined by a
// single space. It reports false when the window would start before the
// first token.
func NgramAt(tokens []string, n, end int) (string, bool) {
	if n < 1 || end >= len(tokens) || end < n-1 {
		return "", false
	}
	return strings.Join(tokens[end-n+1:end+1], " "), true
}

// EachNgram calls fn for every n-gram of the given lengths, scanning end
// positions left to right and, for each position, lengths in the order of ns.
func EachNgram(tokens []string, ns []int, fn func(ngram string)) {
	for end := range tokens {
		for _, n := range ns {
			if ngram, ok := NgramAt(tokens, n, end); ok {
				fn(ngram)
			}
		}
	}
}

// TokenNgrams returns all n-grams of the given lengths in EachNgram order.
func TokenNgrams(tokens []string, ns []int) []string {
	var res []string
	EachNgram(tokens, ns, func(ngram string) {
		res = append(res, ngram)
	})
	return res
}

// IsWordRune matches the characters of a regexp \w class in Unicode mode.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// CollapseRepeats shortens every run of identical word characters longer
// than keep down to keep characters. Non-word characters are left alone.
func CollapseRepeats(text string, keep int) string {
	var buf strings.Builder
	buf.Grow(len(text))
	var prev rune
	run := 0
	for i, r := range text {
		if i > 0 && r == prev && IsWordRune(r) {
			run++
		} else {
			run = 1
		}
		prev = r
		if run <= keep {
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

var whitespaceRe = regexp.MustCompile(`[\s\p{Z}\x{85}]+`)

// NormalizeWhitespaces replaces every run of Unicode whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	return whitespaceRe.ReplaceAllString(text, " ")
}
