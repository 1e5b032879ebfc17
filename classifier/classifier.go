// Package classifier implements the sentiment classifiers: multinomial naive
// Bayes, maximum entropy, dictionary lookup and a hierarchical composition of
// trained classifiers.
//
// A classifier owns its preprocessor and feature pipeline. Learn replaces
// the whole trained state, so a classifier can be retrained any number of
// times, but not concurrently.
package classifier

import (
	"errors"
	"fmt"

	"github.com/happyhackingspace/senti/preprocess"
	"github.com/happyhackingspace/senti/vectorizer"
)

var (
	// ErrNotTrained is returned when classifying before Learn succeeded.
	ErrNotTrained = errors.New("classifier: not trained")
	// ErrEmptyTrainingSet is returned by Learn when there are no documents.
	ErrEmptyTrainingSet = errors.New("classifier: empty training set")
	// ErrLengthMismatch is returned by Learn when documents and labels differ in length.
	ErrLengthMismatch = errors.New("classifier: documents and labels differ in length")
)

// Classifier assigns a label to a document.
type Classifier interface {
	Learn(documents, labels []string) error
	// Classify returns the label of document as it appeared in training.
	Classify(document string) (string, error)
	// ClassifyBatch is Classify mapped over documents, in order.
	ClassifyBatch(documents []string) ([]string, error)
	String() string
}

// Probabilistic is a classifier that scores every class and picks the best.
type Probabilistic interface {
	Classifier
	// ClassifyIndex returns the encoded label, an index into Classes.
	ClassifyIndex(document string) (int, error)
	Classes() []string
	// ConditionalProbability scores document under class. Scores are only
	// comparable across classes for the same document.
	ConditionalProbability(class int, document string) (float64, error)
}

func validate(documents, labels []string) error {
	if len(documents) != len(labels) {
		return fmt.Errorf("%w: %d documents, %d labels", ErrLengthMismatch, len(documents), len(labels))
	}
	if len(documents) == 0 {
		return ErrEmptyTrainingSet
	}
	return nil
}

// argmax returns the index of the highest score; ties go to the lowest index.
func argmax(scores []float64) int {
	best := 0
	for c := 1; c < len(scores); c++ {
		if scores[c] > scores[best] {
			best = c
		}
	}
	return best
}

func classifyBatch(c Classifier, documents []string) ([]string, error) {
	out := make([]string, len(documents))
	for i, doc := range documents {
		label, err := c.Classify(doc)
		if err != nil {
			return nil, err
		}
		out[i] = label
	}
	return out, nil
}

// pipeline is the preprocessor and extractor pair shared by the trainable
// classifiers.
type pipeline struct {
	pre *preprocess.Chain
	ext vectorizer.Extractor
}

func newPipeline(pre *preprocess.Chain, ext vectorizer.Extractor) pipeline {
	if pre == nil {
		pre = preprocess.NewChain()
	}
	return pipeline{pre: pre, ext: ext}
}

// learn preprocesses the corpus and trains the extractor on it.
func (p pipeline) learn(documents, labels []string) ([]string, error) {
	processed := make([]string, len(documents))
	for i, doc := range documents {
		processed[i] = p.pre.Preprocess(doc)
	}
	if err := p.ext.Learn(processed, labels); err != nil {
		return nil, err
	}
	return processed, nil
}

func (p pipeline) vector(document string) vectorizer.SparseVector {
	return p.ext.Extract(p.pre.Preprocess(document))
}

// Preprocessor returns the classifier's preprocessing chain.
func (p pipeline) Preprocessor() *preprocess.Chain { return p.pre }

// Extractor returns the classifier's feature pipeline.
func (p pipeline) Extractor() vectorizer.Extractor { return p.ext }

func (p pipeline) String() string {
	return p.pre.String() + ", " + p.ext.String()
}
