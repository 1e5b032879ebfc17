package classifier

import (
	"fmt"
	"strings"
)

// Stage routes documents the first classifier labels Trigger to Classifier.
type Stage struct {
	Trigger    string
	Classifier Classifier
}

// Hierarchical chains already trained classifiers, e.g. a subjectivity
// classifier followed by a polarity classifier for subjective documents.
type Hierarchical struct {
	first  Classifier
	stages []Stage
}

// NewHierarchical composes first with the given second-level stages. When
// several stages share a trigger the first one wins.
func NewHierarchical(first Classifier, stages ...Stage) *Hierarchical {
	return &Hierarchical{first: first, stages: stages}
}

// Learn is a no-op: the composed classifiers are trained on their own.
func (h *Hierarchical) Learn(documents, labels []string) error { return nil }

// Classify labels document with the first classifier and, when the label
// triggers a stage, returns the stage classifier's label instead.
func (h *Hierarchical) Classify(document string) (string, error) {
	label, err := h.first.Classify(document)
	if err != nil {
		return "", err
	}
	for _, st := range h.stages {
		if st.Trigger == label {
			return st.Classifier.Classify(document)
		}
	}
	return label, nil
}

// ClassifyBatch classifies documents in order.
func (h *Hierarchical) ClassifyBatch(documents []string) ([]string, error) {
	return classifyBatch(h, documents)
}

// First returns the first-level classifier.
func (h *Hierarchical) First() Classifier { return h.first }

// Stages returns the second-level stages.
func (h *Hierarchical) Stages() []Stage { return append([]Stage(nil), h.stages...) }

func (h *Hierarchical) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classifier=Hierarchical (first=[%s]", h.first.String())
	for _, st := range h.stages {
		fmt.Fprintf(&b, ", %s=[%s]", st.Trigger, st.Classifier.String())
	}
	b.WriteString(")")
	return b.String()
}
