package classifier

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/happyhackingspace/senti/preprocess"
	"github.com/happyhackingspace/senti/vectorizer"
)

// Model kinds written in the persistence envelope.
const (
	KindNaiveBayes   = "naive_bayes"
	KindMaxEnt       = "maxent"
	KindDictionary   = "dictionary"
	KindHierarchical = "hierarchical"
)

type envelope struct {
	Kind  string          `json:"kind"`
	State json.RawMessage `json:"state"`
}

// Marshal serializes a classifier together with its preprocessor, feature
// pipeline and trained state.
func Marshal(c Classifier) ([]byte, error) {
	var kind string
	switch c.(type) {
	case *NaiveBayes:
		kind = KindNaiveBayes
	case *MaxEnt:
		kind = KindMaxEnt
	case *Dictionary:
		kind = KindDictionary
	case *Hierarchical:
		kind = KindHierarchical
	default:
		return nil, fmt.Errorf("classifier: cannot serialize %T", c)
	}
	state, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("classifier: encode %s: %w", kind, err)
	}
	return json.Marshal(envelope{Kind: kind, State: state})
}

// Unmarshal rebuilds a classifier written by Marshal.
func Unmarshal(data []byte) (Classifier, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("classifier: decode model: %w", err)
	}
	var c Classifier
	switch env.Kind {
	case KindNaiveBayes:
		c = &NaiveBayes{}
	case KindMaxEnt:
		c = &MaxEnt{}
	case KindDictionary:
		c = &Dictionary{}
	case KindHierarchical:
		c = &Hierarchical{}
	default:
		return nil, fmt.Errorf("classifier: unknown model kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.State, c); err != nil {
		return nil, fmt.Errorf("classifier: decode %s: %w", env.Kind, err)
	}
	return c, nil
}

// Save writes c to w.
func Save(w io.Writer, c Classifier) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Load reads a classifier from r.
func Load(r io.Reader) (Classifier, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("classifier: read model: %w", err)
	}
	return Unmarshal(data)
}

// SaveFile writes c to a model file.
func SaveFile(path string, c Classifier) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFile reads a classifier from a model file.
func LoadFile(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	return Unmarshal(data)
}

type pipelineJSON struct {
	Preprocessor *preprocess.Chain `json:"preprocessor"`
	Extractor    json.RawMessage   `json:"extractor"`
}

func (p pipeline) marshal() (pipelineJSON, error) {
	ext, err := vectorizer.MarshalExtractor(p.ext)
	if err != nil {
		return pipelineJSON{}, err
	}
	return pipelineJSON{Preprocessor: p.pre, Extractor: ext}, nil
}

func (pj pipelineJSON) unmarshal() (pipeline, error) {
	ext, err := vectorizer.UnmarshalExtractor(pj.Extractor)
	if err != nil {
		return pipeline{}, err
	}
	return newPipeline(pj.Preprocessor, ext), nil
}

type naiveBayesJSON struct {
	pipelineJSON
	Alpha float64  `json:"alpha"`
	State *nbState `json:"state,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (nb *NaiveBayes) MarshalJSON() ([]byte, error) {
	p, err := nb.pipeline.marshal()
	if err != nil {
		return nil, err
	}
	return json.Marshal(naiveBayesJSON{pipelineJSON: p, Alpha: nb.alpha, State: nb.state})
}

// UnmarshalJSON implements json.Unmarshaler.
func (nb *NaiveBayes) UnmarshalJSON(data []byte) error {
	var in naiveBayesJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p, err := in.pipelineJSON.unmarshal()
	if err != nil {
		return err
	}
	*nb = NaiveBayes{pipeline: p, alpha: in.Alpha, state: in.State}
	return nil
}

type maxEntJSON struct {
	pipelineJSON
	Config MaxEntConfig `json:"config"`
	State  *maxEntState `json:"state,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m *MaxEnt) MarshalJSON() ([]byte, error) {
	p, err := m.pipeline.marshal()
	if err != nil {
		return nil, err
	}
	return json.Marshal(maxEntJSON{pipelineJSON: p, Config: m.config, State: m.state})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *MaxEnt) UnmarshalJSON(data []byte) error {
	var in maxEntJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p, err := in.pipelineJSON.unmarshal()
	if err != nil {
		return err
	}
	*m = MaxEnt{pipeline: p, config: in.Config, state: in.State}
	return nil
}

type dictionaryJSON struct {
	Preprocessor *preprocess.Chain `json:"preprocessor"`
	Positive     []string          `json:"positive"`
	Negative     []string          `json:"negative"`
}

// MarshalJSON implements json.Marshaler. Word lists are written sorted.
func (d *Dictionary) MarshalJSON() ([]byte, error) {
	pos, neg := setWords(d.positive), setWords(d.negative)
	slices.Sort(pos)
	slices.Sort(neg)
	return json.Marshal(dictionaryJSON{Preprocessor: d.pre, Positive: pos, Negative: neg})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Dictionary) UnmarshalJSON(data []byte) error {
	var in dictionaryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*d = *NewDictionary(in.Preprocessor, in.Positive, in.Negative)
	return nil
}

type stageJSON struct {
	Trigger    string          `json:"trigger"`
	Classifier json.RawMessage `json:"classifier"`
}

type hierarchicalJSON struct {
	First  json.RawMessage `json:"first"`
	Stages []stageJSON     `json:"stages"`
}

// MarshalJSON implements json.Marshaler.
func (h *Hierarchical) MarshalJSON() ([]byte, error) {
	first, err := Marshal(h.first)
	if err != nil {
		return nil, err
	}
	out := hierarchicalJSON{First: first, Stages: make([]stageJSON, len(h.stages))}
	for i, st := range h.stages {
		raw, err := Marshal(st.Classifier)
		if err != nil {
			return nil, err
		}
		out.Stages[i] = stageJSON{Trigger: st.Trigger, Classifier: raw}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *Hierarchical) UnmarshalJSON(data []byte) error {
	var in hierarchicalJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	first, err := Unmarshal(in.First)
	if err != nil {
		return err
	}
	stages := make([]Stage, len(in.Stages))
	for i, st := range in.Stages {
		c, err := Unmarshal(st.Classifier)
		if err != nil {
			return err
		}
		stages[i] = Stage{Trigger: st.Trigger, Classifier: c}
	}
	*h = Hierarchical{first: first, stages: stages}
	return nil
}
