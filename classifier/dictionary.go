package classifier

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/happyhackingspace/senti/internal/textutil"
	"github.com/happyhackingspace/senti/preprocess"
)

// Labels produced by the dictionary classifier.
const (
	Positive = "positive"
	Negative = "negative"
)

// Dictionary labels a document by counting tokens found in a positive and
// a negative opinion lexicon. It needs no training.
type Dictionary struct {
	pre      *preprocess.Chain
	positive map[string]bool
	negative map[string]bool
}

// NewDictionary creates a dictionary classifier from two word lists.
func NewDictionary(pre *preprocess.Chain, positive, negative []string) *Dictionary {
	if pre == nil {
		pre = preprocess.NewChain()
	}
	return &Dictionary{pre: pre, positive: wordSet(positive), negative: wordSet(negative)}
}

// LoadDictionary reads the positive and negative lexicons from files with
// one word per line. Blank lines and lines starting with ';' are skipped.
func LoadDictionary(pre *preprocess.Chain, positivePath, negativePath string) (*Dictionary, error) {
	positive, err := readLexicon(positivePath)
	if err != nil {
		return nil, err
	}
	negative, err := readLexicon(negativePath)
	if err != nil {
		return nil, err
	}
	return NewDictionary(pre, positive, negative), nil
}

func readLexicon(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: open lexicon: %w", err)
	}
	defer func() { _ = f.Close() }()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("classifier: read lexicon %s: %w", path, err)
	}
	return words, nil
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func setWords(set map[string]bool) []string {
	words := make([]string, 0, len(set))
	for w := range set {
		words = append(words, w)
	}
	return words
}

// Learn is a no-op.
func (d *Dictionary) Learn(documents, labels []string) error { return nil }

// Classify returns Positive when the document has at least as many positive
// as negative lexicon tokens, Negative otherwise.
func (d *Dictionary) Classify(document string) (string, error) {
	pos, neg := 0, 0
	for _, tok := range textutil.Tokenize(d.pre.Preprocess(document)) {
		if d.positive[tok] {
			pos++
		}
		if d.negative[tok] {
			neg++
		}
	}
	if pos >= neg {
		return Positive, nil
	}
	return Negative, nil
}

// ClassifyBatch classifies documents in order.
func (d *Dictionary) ClassifyBatch(documents []string) ([]string, error) {
	return classifyBatch(d, documents)
}

// Preprocessor returns the classifier's preprocessing chain.
func (d *Dictionary) Preprocessor() *preprocess.Chain { return d.pre }

func (d *Dictionary) String() string {
	return fmt.Sprintf("Classifier=Dictionary (positive=%d, negative=%d), %s",
		len(d.positive), len(d.negative), d.pre.String())
}
