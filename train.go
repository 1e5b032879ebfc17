package senti

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/happyhackingspace/senti/evaluation"
	"github.com/happyhackingspace/senti/internal/storage"
)

// Train builds the classifier described by cfg and trains it on the
// id,text,label CSV corpus at input.
func Train(input string, cfg Config) (*Model, error) {
	documents, labels, err := readCorpus(input)
	if err != nil {
		return nil, err
	}
	return TrainDocuments(documents, labels, cfg)
}

// TrainDocuments builds the classifier described by cfg and trains it on
// the given documents.
func TrainDocuments(documents, labels []string, cfg Config) (*Model, error) {
	c, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	if err := c.Learn(documents, labels); err != nil {
		return nil, fmt.Errorf("senti: %w", err)
	}
	slog.Debug("Classifier trained", "documents", len(documents), "duration", time.Since(start))
	return &Model{c: c}, nil
}

// Evaluate cross-validates the classifier described by cfg on the CSV
// corpus at input.
func Evaluate(input string, cfg Config, evalCfg evaluation.Config) (*evaluation.Report, error) {
	documents, labels, err := readCorpus(input)
	if err != nil {
		return nil, err
	}
	c, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	report, err := evaluation.CrossValidate(c, documents, labels, evalCfg)
	if err != nil {
		return nil, fmt.Errorf("senti: %w", err)
	}
	return report, nil
}

func readCorpus(path string) (documents, labels []string, err error) {
	rows, err := storage.ReadLabelledSet(path)
	if err != nil {
		return nil, nil, fmt.Errorf("senti: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("senti: no labelled rows found in %s", path)
	}
	documents, labels = storage.Split(rows)
	return documents, labels, nil
}
