package senti

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/happyhackingspace/senti/classifier"
	"github.com/happyhackingspace/senti/preprocess"
	"github.com/happyhackingspace/senti/vectorizer"
)

// Classifier algorithms.
const (
	NaiveBayes   = "naive_bayes"
	MaxEnt       = "max_ent"
	Dictionary   = "dictionary"
	Hierarchical = "hierarchical"
)

// Feature selection strategies. SelectNone disables selection.
const (
	SelectNone              = "none"
	SelectMutualInformation = "mutual_information"
	SelectDeltaIDF          = "delta_idf"
)

// Config enumerates the parts of a classifier graph.
type Config struct {
	Algorithm  string                 `yaml:"algorithm"`
	Ngrams     []int                  `yaml:"ngrams"`
	Weighting  string                 `yaml:"weighting"`
	DeltaTFIDF vectorizer.DeltaLabels `yaml:"delta_tfidf"`
	Selector   SelectorConfig         `yaml:"selector"`
	Preprocess preprocess.Options     `yaml:"preprocess"`

	NaiveBayes   NaiveBayesConfig        `yaml:"naive_bayes"`
	MaxEnt       classifier.MaxEntConfig `yaml:"max_ent"`
	Dictionary   DictionaryConfig        `yaml:"dictionary"`
	Hierarchical HierarchicalConfig      `yaml:"hierarchical"`
}

// SelectorConfig configures feature selection. Top is a fraction of the
// vocabulary when in (0, 1], otherwise a feature count.
type SelectorConfig struct {
	Strategy string  `yaml:"strategy"`
	Top      float64 `yaml:"top"`
}

// NaiveBayesConfig holds naive Bayes parameters.
type NaiveBayesConfig struct {
	Alpha float64 `yaml:"alpha"`
}

// DictionaryConfig names the opinion lexicon files.
type DictionaryConfig struct {
	Positive string `yaml:"positive"`
	Negative string `yaml:"negative"`
}

// HierarchicalConfig names the trained model files of a hierarchical
// classifier.
type HierarchicalConfig struct {
	First  string        `yaml:"first"`
	Stages []StageConfig `yaml:"stages"`
}

// StageConfig routes documents labelled Trigger to the model in Model.
type StageConfig struct {
	Trigger string `yaml:"trigger"`
	Model   string `yaml:"model"`
}

// DefaultConfig returns a unigram count naive Bayes over the standard
// preprocessing chain.
func DefaultConfig() Config {
	return Config{
		Algorithm:  NaiveBayes,
		Ngrams:     []int{1},
		Weighting:  vectorizer.Count.String(),
		DeltaTFIDF: vectorizer.DefaultDeltaLabels(),
		Selector:   SelectorConfig{Strategy: SelectNone},
		Preprocess: preprocess.Options{All: true},
		NaiveBayes: NaiveBayesConfig{Alpha: 1},
		MaxEnt:     classifier.DefaultMaxEntConfig(),
	}
}

// LoadConfig reads a YAML config file over the defaults. A preprocess
// section replaces the default toggles instead of adding to them.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("senti: %w", err)
	}
	var probe struct {
		Preprocess *preprocess.Options `yaml:"preprocess"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return cfg, fmt.Errorf("senti: parse %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("senti: parse %s: %w", path, err)
	}
	if probe.Preprocess != nil {
		cfg.Preprocess = *probe.Preprocess
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects unknown enumerations and missing parameters.
func (c Config) Validate() error {
	var errs []error
	switch c.Algorithm {
	case NaiveBayes, MaxEnt:
	case Dictionary:
		if c.Dictionary.Positive == "" || c.Dictionary.Negative == "" {
			errs = append(errs, errors.New("dictionary needs positive and negative lexicon files"))
		}
	case Hierarchical:
		if c.Hierarchical.First == "" || len(c.Hierarchical.Stages) == 0 {
			errs = append(errs, errors.New("hierarchical needs a first model and at least one stage"))
		}
		for i, st := range c.Hierarchical.Stages {
			if st.Trigger == "" || st.Model == "" {
				errs = append(errs, fmt.Errorf("hierarchical stage %d needs a trigger and a model", i+1))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("unknown algorithm %q (want %s, %s, %s or %s)",
			c.Algorithm, NaiveBayes, MaxEnt, Dictionary, Hierarchical))
	}

	if c.usesFeatures() {
		if len(c.Ngrams) == 0 {
			errs = append(errs, errors.New("at least one n-gram length is required"))
		}
		for _, n := range c.Ngrams {
			if n < 1 {
				errs = append(errs, fmt.Errorf("invalid n-gram length %d", n))
			}
		}
		if _, err := vectorizer.ParseWeighting(c.Weighting); err != nil {
			errs = append(errs, err)
		}
		switch c.Selector.Strategy {
		case "", SelectNone:
		case SelectMutualInformation, SelectDeltaIDF:
			if c.Selector.Top <= 0 {
				errs = append(errs, fmt.Errorf("selector top must be positive, got %v", c.Selector.Top))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown selector strategy %q", c.Selector.Strategy))
		}
		if c.NaiveBayes.Alpha < 0 {
			errs = append(errs, fmt.Errorf("naive bayes alpha must not be negative, got %v", c.NaiveBayes.Alpha))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("senti: invalid config: %w", err)
	}
	return nil
}

func (c Config) usesFeatures() bool {
	return c.Algorithm == NaiveBayes || c.Algorithm == MaxEnt
}

// Build constructs the untrained classifier graph described by cfg.
// Hierarchical graphs load their trained parts from the named model files.
func Build(cfg Config) (classifier.Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pre := preprocess.Build(cfg.Preprocess)

	switch cfg.Algorithm {
	case Dictionary:
		d, err := classifier.LoadDictionary(pre, cfg.Dictionary.Positive, cfg.Dictionary.Negative)
		if err != nil {
			return nil, fmt.Errorf("senti: %w", err)
		}
		return d, nil
	case Hierarchical:
		return buildHierarchical(cfg.Hierarchical)
	}

	ext, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Algorithm == MaxEnt {
		return classifier.NewMaxEnt(pre, ext, cfg.MaxEnt), nil
	}
	return classifier.NewNaiveBayes(pre, ext, cfg.NaiveBayes.Alpha), nil
}

func buildExtractor(cfg Config) (vectorizer.Extractor, error) {
	w, err := vectorizer.ParseWeighting(cfg.Weighting)
	if err != nil {
		return nil, fmt.Errorf("senti: %w", err)
	}
	var ext vectorizer.Extractor
	if w == vectorizer.DeltaTFIDF {
		ext = vectorizer.NewDeltaTFIDFExtractor(cfg.DeltaTFIDF, cfg.Ngrams...)
	} else {
		ext = vectorizer.NewNgramExtractor(w, cfg.Ngrams...)
	}

	strategy := strings.ToLower(cfg.Selector.Strategy)
	if strategy == "" || strategy == SelectNone {
		return ext, nil
	}
	scorer, err := vectorizer.ParseScorer(strategy)
	if err != nil {
		return nil, fmt.Errorf("senti: %w", err)
	}
	return vectorizer.NewSelector(ext, scorer, cfg.Selector.Top), nil
}

func buildHierarchical(hc HierarchicalConfig) (classifier.Classifier, error) {
	first, err := classifier.LoadFile(hc.First)
	if err != nil {
		return nil, fmt.Errorf("senti: first stage: %w", err)
	}
	stages := make([]classifier.Stage, len(hc.Stages))
	for i, st := range hc.Stages {
		c, err := classifier.LoadFile(st.Model)
		if err != nil {
			return nil, fmt.Errorf("senti: stage %q: %w", st.Trigger, err)
		}
		stages[i] = classifier.Stage{Trigger: st.Trigger, Classifier: c}
	}
	return classifier.NewHierarchical(first, stages...), nil
}
