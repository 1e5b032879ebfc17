package vectorizer

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Kind  string          `json:"kind"`
	State json.RawMessage `json:"state"`
}

// MarshalExtractor serializes an extractor graph with kind tags so that
// UnmarshalExtractor can rebuild the concrete types.
func MarshalExtractor(e Extractor) (json.RawMessage, error) {
	var kind string
	switch e.(type) {
	case *NgramExtractor:
		kind = "ngram"
	case *Selector:
		kind = "selector"
	default:
		return nil, fmt.Errorf("vectorizer: cannot serialize extractor %T", e)
	}
	state, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: kind, State: state})
}

// UnmarshalExtractor rebuilds an extractor written by MarshalExtractor.
func UnmarshalExtractor(data []byte) (Extractor, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("vectorizer: decode extractor: %w", err)
	}
	var e Extractor
	switch env.Kind {
	case "ngram":
		e = &NgramExtractor{}
	case "selector":
		e = &Selector{}
	default:
		return nil, fmt.Errorf("vectorizer: unknown extractor kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.State, e); err != nil {
		return nil, fmt.Errorf("vectorizer: decode %s extractor: %w", env.Kind, err)
	}
	return e, nil
}
