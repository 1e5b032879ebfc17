// Package evaluation measures classifier quality by k-fold cross-validation.
package evaluation

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/happyhackingspace/senti/classifier"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewDocuments is returned when the corpus cannot fill every fold.
var ErrTooFewDocuments = errors.New("evaluation: fewer documents than folds")

// Config holds cross-validation settings.
type Config struct {
	Folds   int    `yaml:"folds" json:"folds"`
	Seed    uint64 `yaml:"seed" json:"seed"`
	Shuffle bool   `yaml:"shuffle" json:"shuffle"`
}

// DefaultConfig returns ten shuffled folds with a fixed seed.
func DefaultConfig() Config {
	return Config{Folds: 10, Seed: 1, Shuffle: true}
}

// Metrics holds precision, recall and F1 of one label.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"` // gold documents with the label
}

// FoldResult holds the label-averaged metrics of one fold.
type FoldResult struct {
	Index     int     `json:"index"`
	Size      int     `json:"size"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Report aggregates a cross-validation run.
type Report struct {
	Folds []FoldResult `json:"folds"`
	// Macro averages over folds.
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`
	Correct   int     `json:"correct"`
	Total     int     `json:"total"`

	Classes   []string                  `json:"classes"`
	PerClass  map[string]Metrics        `json:"per_class"`
	Confusion map[string]map[string]int `json:"confusion"` // [gold][predicted]
}

// Measures computes precision, recall and F1 of label over aligned gold and
// predicted sequences. A zero denominator is incremented by one, so a label
// that is never predicted or never occurs scores 0 instead of NaN.
func Measures(label string, gold, predicted []string) Metrics {
	var tp, fp, fn float64
	support := 0
	for i := range gold {
		expected, observed := gold[i] == label, predicted[i] == label
		if expected {
			support++
		}
		switch {
		case expected && observed:
			tp++
		case expected:
			fn++
		case observed:
			fp++
		}
	}
	return metrics(tp, fp, fn, support)
}

func metrics(tp, fp, fn float64, support int) Metrics {
	p := smoothedDiv(tp, tp+fp)
	r := smoothedDiv(tp, tp+fn)
	return Metrics{Precision: p, Recall: r, F1: smoothedDiv(2*p*r, p+r), Support: support}
}

func smoothedDiv(n, d float64) float64 {
	if d == 0 {
		d = 1
	}
	return n / d
}

// CrossValidate splits the corpus into cfg.Folds contiguous folds, after an
// optional seeded shuffle, and for each fold trains c on the other folds and
// classifies the held-out one. Folds run sequentially and each Learn fully
// replaces the classifier's state, so c ends up trained on the last split.
func CrossValidate(c classifier.Classifier, documents, labels []string, cfg Config) (*Report, error) {
	if len(documents) != len(labels) {
		return nil, fmt.Errorf("evaluation: %d documents, %d labels", len(documents), len(labels))
	}
	if cfg.Folds < 2 {
		return nil, fmt.Errorf("evaluation: need at least 2 folds, got %d", cfg.Folds)
	}
	n := len(documents)
	if n < cfg.Folds {
		return nil, fmt.Errorf("%w: %d documents, %d folds", ErrTooFewDocuments, n, cfg.Folds)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if cfg.Shuffle {
		rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	report := &Report{Confusion: make(map[string]map[string]int)}
	type counts struct{ tp, fp, fn float64 }
	perLabel := make(map[string]*counts)
	seen := func(label string) *counts {
		if _, ok := perLabel[label]; !ok {
			perLabel[label] = &counts{}
			report.Classes = append(report.Classes, label)
		}
		return perLabel[label]
	}
	for _, l := range labels {
		seen(l)
	}

	var ps, rs, fs []float64
	for k := range cfg.Folds {
		start, end := k*n/cfg.Folds, (k+1)*n/cfg.Folds
		var trainDocs, trainLabels, testDocs, gold []string
		for pos, idx := range order {
			if pos >= start && pos < end {
				testDocs = append(testDocs, documents[idx])
				gold = append(gold, labels[idx])
			} else {
				trainDocs = append(trainDocs, documents[idx])
				trainLabels = append(trainLabels, labels[idx])
			}
		}

		if err := c.Learn(trainDocs, trainLabels); err != nil {
			return nil, fmt.Errorf("evaluation: fold %d: %w", k+1, err)
		}
		predicted, err := c.ClassifyBatch(testDocs)
		if err != nil {
			return nil, fmt.Errorf("evaluation: fold %d: %w", k+1, err)
		}

		var foldLabels []string
		for i := range gold {
			for _, l := range []string{gold[i], predicted[i]} {
				if !slices.Contains(foldLabels, l) {
					foldLabels = append(foldLabels, l)
				}
			}
			row := report.Confusion[gold[i]]
			if row == nil {
				row = make(map[string]int)
				report.Confusion[gold[i]] = row
			}
			row[predicted[i]]++
			if gold[i] == predicted[i] {
				report.Correct++
				seen(gold[i]).tp++
			} else {
				seen(gold[i]).fn++
				seen(predicted[i]).fp++
			}
			report.Total++
		}

		fold := FoldResult{Index: k + 1, Size: len(testDocs)}
		for _, l := range foldLabels {
			m := Measures(l, gold, predicted)
			fold.Precision += m.Precision
			fold.Recall += m.Recall
			fold.F1 += m.F1
		}
		if len(foldLabels) > 0 {
			fold.Precision /= float64(len(foldLabels))
			fold.Recall /= float64(len(foldLabels))
			fold.F1 /= float64(len(foldLabels))
		}
		slog.Debug("Fold evaluated", "fold", fold.Index, "size", fold.Size, "f1", fold.F1)

		report.Folds = append(report.Folds, fold)
		ps = append(ps, fold.Precision)
		rs = append(rs, fold.Recall)
		fs = append(fs, fold.F1)
	}

	report.Precision = stat.Mean(ps, nil)
	report.Recall = stat.Mean(rs, nil)
	report.F1 = stat.Mean(fs, nil)
	report.Accuracy = smoothedDiv(float64(report.Correct), float64(report.Total))

	report.PerClass = make(map[string]Metrics, len(perLabel))
	for _, l := range report.Classes {
		cnt := perLabel[l]
		support := 0
		for _, v := range report.Confusion[l] {
			support += v
		}
		report.PerClass[l] = metrics(cnt.tp, cnt.fp, cnt.fn, support)
	}
	return report, nil
}
