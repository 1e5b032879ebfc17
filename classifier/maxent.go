package classifier

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/happyhackingspace/senti/preprocess"
	"github.com/happyhackingspace/senti/vectorizer"
	"gonum.org/v1/gonum/floats"
)

// MaxEntConfig holds maximum entropy training hyperparameters.
type MaxEntConfig struct {
	Step          float64 `yaml:"step" json:"step"`
	Epsilon       float64 `yaml:"epsilon" json:"epsilon"` // convergence threshold on the gradient norm
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	// NormalizeDelta divides the gradient norm by classes*features before
	// the convergence test.
	NormalizeDelta bool `yaml:"normalize_delta" json:"normalize_delta"`
}

// DefaultMaxEntConfig returns the default training config.
func DefaultMaxEntConfig() MaxEntConfig {
	return MaxEntConfig{
		Step:          0.1,
		Epsilon:       1e-3,
		MaxIterations: 100,
	}
}

// MaxEnt is a multinomial logistic regression classifier trained by
// fixed-step gradient ascent.
type MaxEnt struct {
	pipeline
	config MaxEntConfig
	state  *maxEntState
}

type maxEntState struct {
	Classes []string    `json:"classes"`
	Weights [][]float64 `json:"weights"` // [numClasses][numFeatures]
	Norms   []float64   `json:"norms"`   // gradient norm per iteration
}

// NewMaxEnt creates a maximum entropy classifier. Zero config fields take
// their defaults.
func NewMaxEnt(pre *preprocess.Chain, ext vectorizer.Extractor, config MaxEntConfig) *MaxEnt {
	def := DefaultMaxEntConfig()
	if config.Step <= 0 {
		config.Step = def.Step
	}
	if config.Epsilon <= 0 {
		config.Epsilon = def.Epsilon
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = def.MaxIterations
	}
	return &MaxEnt{pipeline: newPipeline(pre, ext), config: config}
}

// Learn fits the weights. Each iteration moves weights[c] along the
// difference between the observed feature sums of class c and the sums
// expected by the model over the same documents of class c.
func (m *MaxEnt) Learn(documents, labels []string) error {
	if err := validate(documents, labels); err != nil {
		return err
	}
	classes, y := vectorizer.EncodeLabels(labels)
	processed, err := m.learn(documents, labels)
	if err != nil {
		return err
	}

	numClasses, numFeatures := classes.Size(), m.ext.FeaturesCount()
	x := make([]vectorizer.SparseVector, len(processed))
	for i, doc := range processed {
		x[i] = m.ext.Extract(doc)
	}

	weights := newMatrix(numClasses, numFeatures)
	empirical := newMatrix(numClasses, numFeatures)
	for i := range x {
		x[i].AddTo(empirical[y[i]], 1)
	}

	predicted := newMatrix(numClasses, numFeatures)
	var norms []float64
	for iter := range m.config.MaxIterations {
		for c := range predicted {
			clear(predicted[c])
		}
		for i := range x {
			probs := softmax(logits(weights, x[i]))
			x[i].AddTo(predicted[y[i]], probs[y[i]])
		}

		delta := 0.0
		for c := range numClasses {
			for f := range numFeatures {
				g := empirical[c][f] - predicted[c][f]
				weights[c][f] += m.config.Step * g
				delta += g * g
			}
		}

		norm := math.Sqrt(delta)
		if m.config.NormalizeDelta && numClasses*numFeatures > 0 {
			norm /= float64(numClasses * numFeatures)
		}
		norms = append(norms, norm)
		slog.Debug("MaxEnt training iteration", "iteration", iter+1, "norm", norm)
		if norm <= m.config.Epsilon {
			break
		}
	}

	m.state = &maxEntState{Classes: classes.Strings(), Weights: weights, Norms: norms}
	return nil
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for r := range m {
		m[r] = make([]float64, cols)
	}
	return m
}

func logits(weights [][]float64, v vectorizer.SparseVector) []float64 {
	out := make([]float64, len(weights))
	for c, w := range weights {
		out[c] = v.Dot(w)
	}
	return out
}

// softmax returns exp(l - logsumexp(l)) for every logit l.
func softmax(logits []float64) []float64 {
	lse := floats.LogSumExp(logits)
	probs := make([]float64, len(logits))
	for i, l := range logits {
		probs[i] = math.Exp(l - lse)
	}
	return probs
}

// ConditionalProbability returns p(class|document) under the trained weights.
func (m *MaxEnt) ConditionalProbability(class int, document string) (float64, error) {
	if m.state == nil {
		return 0, ErrNotTrained
	}
	if class < 0 || class >= len(m.state.Classes) {
		return 0, fmt.Errorf("classifier: class index %d out of range", class)
	}
	return softmax(logits(m.state.Weights, m.vector(document)))[class], nil
}

// ClassifyIndex returns the most probable encoded label.
func (m *MaxEnt) ClassifyIndex(document string) (int, error) {
	if m.state == nil {
		return 0, ErrNotTrained
	}
	return argmax(softmax(logits(m.state.Weights, m.vector(document)))), nil
}

// Classify returns the most probable label.
func (m *MaxEnt) Classify(document string) (string, error) {
	c, err := m.ClassifyIndex(document)
	if err != nil {
		return "", err
	}
	return m.state.Classes[c], nil
}

// ClassifyBatch classifies documents in order.
func (m *MaxEnt) ClassifyBatch(documents []string) ([]string, error) {
	return classifyBatch(m, documents)
}

// Classes returns the training labels in encoding order.
func (m *MaxEnt) Classes() []string {
	if m.state == nil {
		return nil
	}
	return append([]string(nil), m.state.Classes...)
}

// Norms returns the gradient norm recorded at each training iteration.
func (m *MaxEnt) Norms() []float64 {
	if m.state == nil {
		return nil
	}
	return append([]float64(nil), m.state.Norms...)
}

// Config returns the training hyperparameters.
func (m *MaxEnt) Config() MaxEntConfig { return m.config }

func (m *MaxEnt) String() string {
	return fmt.Sprintf("Classifier=MaxEnt (step=%s, epsilon=%s, max_iterations=%d), %s",
		strconv.FormatFloat(m.config.Step, 'g', -1, 64),
		strconv.FormatFloat(m.config.Epsilon, 'g', -1, 64),
		m.config.MaxIterations, m.pipeline.String())
}
