package vectorizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/happyhackingspace/senti/internal/textutil"
)

var (
	// ErrNotBinary is returned when a two-class weighting or scoring is
	// trained on a label set that does not have exactly two classes.
	ErrNotBinary = errors.New("vectorizer: exactly two classes are required")
	// ErrLengthMismatch is returned when documents and labels differ in length.
	ErrLengthMismatch = errors.New("vectorizer: documents and labels differ in length")
)

// Extractor learns a feature space from a training corpus and maps
// documents into it.
type Extractor interface {
	// Learn builds the feature space, replacing any previous one.
	Learn(documents, labels []string) error
	// Extract returns the feature vector of a document; its Dim is FeaturesCount().
	Extract(document string) SparseVector
	FeaturesCount() int
	FeatureName(i int) string
	String() string
}

// Weighting selects how a matched n-gram contributes to a feature vector.
type Weighting int

const (
	// Boolean sets the feature to 1 when the n-gram is present.
	Boolean Weighting = iota
	// Count sets the feature to the number of occurrences.
	Count
	// DeltaTFIDF weights occurrences by the difference of the n-gram's
	// inverse document frequency in the positive and negative classes.
	DeltaTFIDF
)

var weightingNames = map[Weighting]string{
	Boolean:    "boolean",
	Count:      "count",
	DeltaTFIDF: "delta_tfidf",
}

// ParseWeighting parses "boolean", "count" or "delta_tfidf".
func ParseWeighting(s string) (Weighting, error) {
	for w, name := range weightingNames {
		if strings.EqualFold(s, name) {
			return w, nil
		}
	}
	return 0, fmt.Errorf("vectorizer: unknown weighting %q", s)
}

func (w Weighting) String() string {
	if name, ok := weightingNames[w]; ok {
		return name
	}
	return "weighting(" + strconv.Itoa(int(w)) + ")"
}

func (w Weighting) extractorName() string {
	switch w {
	case Boolean:
		return "NgramExtractorBoolean"
	case Count:
		return "NgramExtractorCount"
	default:
		return "NgramExtractorDeltaTfIdf"
	}
}

// DeltaLabels names the two labels whose documents feed the delta TF-IDF
// frequency tables. Documents with any other label only extend the vocabulary.
type DeltaLabels struct {
	Positive string `json:"positive" yaml:"positive"`
	Negative string `json:"negative" yaml:"negative"`
}

// DefaultDeltaLabels routes "positive" and "negative" documents.
func DefaultDeltaLabels() DeltaLabels {
	return DeltaLabels{Positive: "positive", Negative: "negative"}
}

// NgramExtractor maps documents to vectors over the n-grams seen in training.
type NgramExtractor struct {
	weighting Weighting
	ns        []int
	delta     DeltaLabels
	state     *ngramState
}

// ngramState is the learned part of an NgramExtractor.
type ngramState struct {
	Vocabulary *Alphabet `json:"vocabulary"`
	// delta TF-IDF tables: class document counts and per n-gram document frequencies
	PosDocs float64   `json:"pos_docs,omitempty"`
	NegDocs float64   `json:"neg_docs,omitempty"`
	PosDF   []float64 `json:"pos_df,omitempty"`
	NegDF   []float64 `json:"neg_df,omitempty"`
}

// NewNgramExtractor creates an extractor for the given n-gram lengths, e.g.
// ns = [1, 2] extracts unigrams and bigrams. Lengths are sorted and
// deduplicated; non-positive lengths are dropped.
func NewNgramExtractor(weighting Weighting, ns ...int) *NgramExtractor {
	sorted := make([]int, 0, len(ns))
	for _, n := range ns {
		if n > 0 {
			sorted = append(sorted, n)
		}
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return &NgramExtractor{
		weighting: weighting,
		ns:        sorted,
		delta:     DefaultDeltaLabels(),
	}
}

// NewDeltaTFIDFExtractor creates a DeltaTFIDF extractor routing frequencies
// by the given labels.
func NewDeltaTFIDFExtractor(labels DeltaLabels, ns ...int) *NgramExtractor {
	e := NewNgramExtractor(DeltaTFIDF, ns...)
	e.delta = labels
	return e
}

// Weighting returns the extractor's weighting.
func (e *NgramExtractor) Weighting() Weighting { return e.weighting }

// Ns returns the configured n-gram lengths.
func (e *NgramExtractor) Ns() []int { return append([]int(nil), e.ns...) }

// Learn builds the vocabulary: every n-gram not yet seen is appended with the
// next free index, scanning documents, then positions, then lengths.
func (e *NgramExtractor) Learn(documents, labels []string) error {
	if len(documents) != len(labels) {
		return fmt.Errorf("%w: %d documents, %d labels", ErrLengthMismatch, len(documents), len(labels))
	}
	if len(e.ns) == 0 {
		return errors.New("vectorizer: no n-gram lengths configured")
	}

	st := &ngramState{Vocabulary: NewAlphabet()}
	var pos, neg map[int]float64
	if e.weighting == DeltaTFIDF {
		pos = make(map[int]float64)
		neg = make(map[int]float64)
	}

	for i, doc := range documents {
		seen := make(map[int]bool)
		textutil.EachNgram(textutil.Tokenize(doc), e.ns, func(ngram string) {
			seen[st.Vocabulary.Add(ngram)] = true
		})
		if e.weighting != DeltaTFIDF {
			continue
		}
		var df map[int]float64
		switch labels[i] {
		case e.delta.Positive:
			st.PosDocs++
			df = pos
		case e.delta.Negative:
			st.NegDocs++
			df = neg
		default:
			continue
		}
		for idx := range seen {
			df[idx]++
		}
	}

	if e.weighting == DeltaTFIDF {
		if st.PosDocs == 0 || st.NegDocs == 0 {
			return fmt.Errorf("%w: delta TF-IDF needs %q and %q documents, got %v and %v",
				ErrNotBinary, e.delta.Positive, e.delta.Negative, st.PosDocs, st.NegDocs)
		}
		size := st.Vocabulary.Size()
		st.PosDF = denseFromMap(size, pos)
		st.NegDF = denseFromMap(size, neg)
	}

	e.state = st
	return nil
}

func denseFromMap(size int, m map[int]float64) []float64 {
	dense := make([]float64, size)
	for idx, v := range m {
		dense[idx] = v
	}
	return dense
}

// Extract maps a document to its feature vector. N-grams outside the
// vocabulary are ignored. Before Learn the vector is empty.
func (e *NgramExtractor) Extract(document string) SparseVector {
	st := e.state
	if st == nil {
		return NewSparseVector(0)
	}
	counts := make(map[int]float64)
	textutil.EachNgram(textutil.Tokenize(document), e.ns, func(ngram string) {
		if idx := st.Vocabulary.Get(ngram); idx >= 0 {
			counts[idx]++
		}
	})

	for idx, tf := range counts {
		switch e.weighting {
		case Boolean:
			counts[idx] = 1
		case DeltaTFIDF:
			counts[idx] = tf * (idf(st.PosDocs, st.PosDF[idx]) - idf(st.NegDocs, st.NegDF[idx]))
		}
	}
	return FromMap(st.Vocabulary.Size(), counts)
}

// idf is log2(max(1, docs/df)); an n-gram absent from the class counts as
// appearing in one document.
func idf(docs, df float64) float64 {
	return math.Log2(math.Max(1, docs/math.Max(1, df)))
}

// FeaturesCount returns the vocabulary size.
func (e *NgramExtractor) FeaturesCount() int {
	if e.state == nil {
		return 0
	}
	return e.state.Vocabulary.Size()
}

// FeatureName returns the n-gram of feature i.
func (e *NgramExtractor) FeatureName(i int) string {
	return e.state.Vocabulary.String(i)
}

func (e *NgramExtractor) String() string {
	ns := make([]string, len(e.ns))
	for i, n := range e.ns {
		ns[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("FeatureExtractor=%s (ngrams=[%s])", e.weighting.extractorName(), strings.Join(ns, ", "))
}

type ngramJSON struct {
	Weighting string       `json:"weighting"`
	Ns        []int        `json:"ns"`
	Delta     *DeltaLabels `json:"delta,omitempty"`
	State     *ngramState  `json:"state,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *NgramExtractor) MarshalJSON() ([]byte, error) {
	out := ngramJSON{Weighting: e.weighting.String(), Ns: e.ns, State: e.state}
	if e.weighting == DeltaTFIDF {
		out.Delta = &e.delta
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *NgramExtractor) UnmarshalJSON(data []byte) error {
	var in ngramJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	w, err := ParseWeighting(in.Weighting)
	if err != nil {
		return err
	}
	*e = *NewNgramExtractor(w, in.Ns...)
	if in.Delta != nil {
		e.delta = *in.Delta
	}
	e.state = in.State
	return nil
}
