// Package senti classifies the sentiment of short social-media texts.
//
// A model is a preprocessing chain, a feature pipeline and a classifier,
// built from a Config and trained on a labelled CSV corpus:
//
//	m, _ := senti.Train("corpus.csv", senti.DefaultConfig())
//	label, _ := m.Classify("Sooo happy!!! :)") // "positive"
//	_ = m.Save("model.json")
package senti

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/happyhackingspace/senti/classifier"
)

// ErrNoScores is returned by Scores for classifiers that do not score classes.
var ErrNoScores = errors.New("senti: classifier does not score classes")

// Model wraps a classifier graph.
type Model struct {
	c classifier.Classifier
}

// NewModel wraps an already built classifier.
func NewModel(c classifier.Classifier) *Model {
	return &Model{c: c}
}

// ModelDir returns the directory holding the user's default model,
// $HOME/.senti, falling back to ".senti" when the home directory is unknown.
func ModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".senti"
	}
	return filepath.Join(home, ".senti")
}

// New loads the model from "model.json", searching the current directory
// and parent directories up to the module root (where go.mod lives), then
// ModelDir.
func New() (*Model, error) {
	path, err := findModel("model.json")
	if err != nil {
		fallback := filepath.Join(ModelDir(), "model.json")
		if _, statErr := os.Stat(fallback); statErr != nil {
			return nil, fmt.Errorf("senti: %w", err)
		}
		path = fallback
	}
	return Load(path)
}

func findModel(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		// Stop at module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%s not found", name)
}

// Load loads a trained model from a model file.
func Load(path string) (*Model, error) {
	c, err := classifier.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("senti: %w", err)
	}
	return &Model{c: c}, nil
}

// Save writes the model to a model file.
func (m *Model) Save(path string) error {
	if m.c == nil {
		return errors.New("senti: model not initialized")
	}
	if err := classifier.SaveFile(path, m.c); err != nil {
		return fmt.Errorf("senti: %w", err)
	}
	return nil
}

// Classifier returns the wrapped classifier.
func (m *Model) Classifier() classifier.Classifier { return m.c }

// Classify returns the label of text.
func (m *Model) Classify(text string) (string, error) {
	if m.c == nil {
		return "", errors.New("senti: model not initialized")
	}
	label, err := m.c.Classify(text)
	if err != nil {
		return "", fmt.Errorf("senti: %w", err)
	}
	return label, nil
}

// ClassifyBatch labels texts in order.
func (m *Model) ClassifyBatch(texts []string) ([]string, error) {
	if m.c == nil {
		return nil, errors.New("senti: model not initialized")
	}
	labels, err := m.c.ClassifyBatch(texts)
	if err != nil {
		return nil, fmt.Errorf("senti: %w", err)
	}
	return labels, nil
}

// Scores returns the per-class score of text. Scores are comparable only
// across the classes of one text: naive Bayes yields log10 posteriors,
// maximum entropy probabilities.
func (m *Model) Scores(text string) (map[string]float64, error) {
	p, ok := m.c.(classifier.Probabilistic)
	if !ok {
		return nil, ErrNoScores
	}
	classes := p.Classes()
	out := make(map[string]float64, len(classes))
	for i, cls := range classes {
		s, err := p.ConditionalProbability(i, text)
		if err != nil {
			return nil, fmt.Errorf("senti: %w", err)
		}
		out[cls] = s
	}
	return out, nil
}

// String describes the classifier graph.
func (m *Model) String() string {
	if m.c == nil {
		return "<nil>"
	}
	return m.c.String()
}
