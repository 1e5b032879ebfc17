package classifier

import (
	"fmt"
	"math"
	"strconv"

	"github.com/happyhackingspace/senti/preprocess"
	"github.com/happyhackingspace/senti/vectorizer"
	"gonum.org/v1/gonum/floats"
)

// NaiveBayes is a multinomial naive Bayes classifier with Lidstone smoothing.
type NaiveBayes struct {
	pipeline
	alpha float64
	state *nbState
}

type nbState struct {
	Classes   []string    `json:"classes"`
	Priors    []float64   `json:"priors"`
	Counts    [][]float64 `json:"counts"` // [class][feature] summed over the class documents
	ClassSums []float64   `json:"class_sums"`
}

// NewNaiveBayes creates a naive Bayes classifier. alpha <= 0 selects
// Laplace smoothing (alpha = 1).
func NewNaiveBayes(pre *preprocess.Chain, ext vectorizer.Extractor, alpha float64) *NaiveBayes {
	if alpha <= 0 {
		alpha = 1
	}
	return &NaiveBayes{pipeline: newPipeline(pre, ext), alpha: alpha}
}

// Learn computes class priors and per-class feature sums in one pass.
func (nb *NaiveBayes) Learn(documents, labels []string) error {
	if err := validate(documents, labels); err != nil {
		return err
	}
	classes, encoded := vectorizer.EncodeLabels(labels)
	processed, err := nb.learn(documents, labels)
	if err != nil {
		return err
	}

	nc, features := classes.Size(), nb.ext.FeaturesCount()
	st := &nbState{
		Classes:   classes.Strings(),
		Priors:    make([]float64, nc),
		Counts:    make([][]float64, nc),
		ClassSums: make([]float64, nc),
	}
	for c := range nc {
		st.Counts[c] = make([]float64, features)
	}
	for i, doc := range processed {
		c := encoded[i]
		st.Priors[c]++
		nb.ext.Extract(doc).AddTo(st.Counts[c], 1)
	}
	total := float64(len(documents))
	for c := range nc {
		st.Priors[c] /= total
		st.ClassSums[c] = floats.Sum(st.Counts[c])
	}
	nb.state = st
	return nil
}

// ConditionalProbability returns the log10 posterior score of class:
// log10(prior) + sum_f x_f * log10((count[c][f] + a) / (classSum[c] + F*a)).
func (nb *NaiveBayes) ConditionalProbability(class int, document string) (float64, error) {
	if nb.state == nil {
		return 0, ErrNotTrained
	}
	if class < 0 || class >= len(nb.state.Classes) {
		return 0, fmt.Errorf("classifier: class index %d out of range", class)
	}
	return nb.score(class, nb.vector(document)), nil
}

func (nb *NaiveBayes) score(class int, v vectorizer.SparseVector) float64 {
	st := nb.state
	denom := st.ClassSums[class] + float64(len(st.Counts[class]))*nb.alpha
	score := math.Log10(st.Priors[class])
	for i, idx := range v.Indices {
		score += v.Values[i] * math.Log10((st.Counts[class][idx]+nb.alpha)/denom)
	}
	return score
}

// ClassifyIndex returns the encoded label with the highest score.
func (nb *NaiveBayes) ClassifyIndex(document string) (int, error) {
	if nb.state == nil {
		return 0, ErrNotTrained
	}
	v := nb.vector(document)
	scores := make([]float64, len(nb.state.Classes))
	for c := range scores {
		scores[c] = nb.score(c, v)
	}
	return argmax(scores), nil
}

// Classify returns the label with the highest score.
func (nb *NaiveBayes) Classify(document string) (string, error) {
	c, err := nb.ClassifyIndex(document)
	if err != nil {
		return "", err
	}
	return nb.state.Classes[c], nil
}

// ClassifyBatch classifies documents in order.
func (nb *NaiveBayes) ClassifyBatch(documents []string) ([]string, error) {
	return classifyBatch(nb, documents)
}

// Classes returns the training labels in encoding order.
func (nb *NaiveBayes) Classes() []string {
	if nb.state == nil {
		return nil
	}
	return append([]string(nil), nb.state.Classes...)
}

// Alpha returns the smoothing parameter.
func (nb *NaiveBayes) Alpha() float64 { return nb.alpha }

func (nb *NaiveBayes) String() string {
	return "Classifier=NaiveBayes (alpha=" + strconv.FormatFloat(nb.alpha, 'g', -1, 64) + "), " + nb.pipeline.String()
}
