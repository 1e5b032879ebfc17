package preprocess

import (
	"log/slog"
	"strings"

	"github.com/kljensen/snowball"

	"github.com/happyhackingspace/senti/internal/htmlutil"
	"github.com/happyhackingspace/senti/internal/textutil"
)

// HTMLStrip decodes HTML entities and drops markup. Search APIs return tweet
// text with "&amp;", "&lt;" and similar escapes.
func HTMLStrip() Transform {
	return funcTransform{name: "html_strip", fn: func(text string) string {
		plain, err := htmlutil.Text(text)
		if err != nil {
			slog.Debug("html strip failed, keeping raw text", "error", err)
			return text
		}
		return plain
	}}
}

// StopwordRemove drops English stop words. Tokens are rejoined with single spaces.
func StopwordRemove() Transform {
	return funcTransform{name: "stopword_remove", fn: func(text string) string {
		tokens := textutil.Tokenize(text)
		kept := tokens[:0]
		for _, tok := range tokens {
			if !englishStopWords[strings.ToLower(tok)] {
				kept = append(kept, tok)
			}
		}
		return strings.Join(kept, " ")
	}}
}

// Stem reduces each token to its English snowball stem. Placeholder tokens
// produced by the encoders are left unchanged.
func Stem() Transform {
	return funcTransform{name: "stem", fn: func(text string) string {
		tokens := textutil.Tokenize(text)
		for i, tok := range tokens {
			if isPlaceholder(tok) {
				continue
			}
			stemmed, err := snowball.Stem(tok, "english", true)
			if err != nil || stemmed == "" {
				continue
			}
			tokens[i] = stemmed
		}
		return strings.Join(tokens, " ")
	}}
}

func isPlaceholder(tok string) bool {
	switch tok {
	case URLToken, MentionToken, PositiveSmiley, NegativeSmiley:
		return true
	}
	return strings.HasPrefix(tok, "URL_")
}

// englishStopWords is NLTK's English stop word list.
var englishStopWords = func() map[string]bool {
	words := []string{
		"a", "about", "above", "after", "again", "against", "ain", "all", "am",
		"an", "and", "any", "are", "aren", "aren't", "as", "at", "be", "because",
		"been", "before", "being", "below", "between", "both", "but", "by", "can",
		"couldn", "couldn't", "d", "did", "didn", "didn't", "do", "does", "doesn",
		"doesn't", "doing", "don", "don't", "down", "during", "each", "few", "for",
		"from", "further", "had", "hadn", "hadn't", "has", "hasn", "hasn't", "have",
		"haven", "haven't", "having", "he", "her", "here", "hers", "herself", "him",
		"himself", "his", "how", "i", "if", "in", "into", "is", "isn", "isn't", "it",
		"it's", "its", "itself", "just", "ll", "m", "ma", "me", "mightn", "mightn't",
		"more", "most", "mustn", "mustn't", "my", "myself", "needn", "needn't", "no",
		"nor", "not", "now", "o", "of", "off", "on", "once", "only", "or", "other",
		"our", "ours", "ourselves", "out", "over", "own", "re", "s", "same", "shan",
		"shan't", "she", "she's", "should", "should've", "shouldn", "shouldn't", "so",
		"some", "such", "t", "than", "that", "that'll", "the", "their", "theirs",
		"them", "themselves", "then", "there", "these", "they", "this", "those",
		"through", "to", "too", "under", "until", "up", "ve", "very", "was", "wasn",
		"wasn't", "we", "were", "weren", "weren't", "what", "when", "where", "which",
		"while", "who", "whom", "why", "will", "with", "won", "won't", "wouldn",
		"wouldn't", "y", "you", "you'd", "you'll", "you're", "you've", "your",
		"yours", "yourself", "yourselves",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()
