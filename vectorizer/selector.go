package vectorizer

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// ErrNotLearned is returned by queries that need a learned selector.
var ErrNotLearned = errors.New("vectorizer: selector has not been learned")

// Selector wraps an Extractor and keeps only the best-scoring features.
type Selector struct {
	inner  Extractor
	scorer Scorer
	top    float64
	sel    *selection
}

// selection is the learned part of a Selector.
type selection struct {
	Best    []int     `json:"best"`
	Classes []string  `json:"classes"`
	Deltas  []float64 `json:"deltas,omitempty"` // signed delta IDF per original feature

	pos map[int]int // original index -> position in Best
}

func (s *selection) index() {
	s.pos = make(map[int]int, len(s.Best))
	for i, orig := range s.Best {
		s.pos[orig] = i
	}
}

// NewSelector wraps inner. top is a fraction of the learned feature count
// when in (0, 1], otherwise an absolute feature budget.
func NewSelector(inner Extractor, scorer Scorer, top float64) *Selector {
	return &Selector{inner: inner, scorer: scorer, top: top}
}

// Inner returns the wrapped extractor.
func (s *Selector) Inner() Extractor { return s.inner }

// Learn trains the wrapped extractor, scores every feature and keeps the top
// ones. Each score row contributes its ceil(budget/rows) best features; the
// union keeps first-seen order. A union larger than the budget drops the
// features with the lowest best score across rows, the greatest names first
// on ties, so the kept set does not depend on the order of the classes.
func (s *Selector) Learn(documents, labels []string) error {
	if len(documents) != len(labels) {
		return fmt.Errorf("%w: %d documents, %d labels", ErrLengthMismatch, len(documents), len(labels))
	}
	if s.top <= 0 {
		return fmt.Errorf("vectorizer: selection budget must be positive, got %v", s.top)
	}
	classes, encoded := EncodeLabels(labels)
	if err := s.scorer.Check(classes.Size()); err != nil {
		return err
	}
	if err := s.inner.Learn(documents, labels); err != nil {
		return err
	}

	features := s.inner.FeaturesCount()
	stats := newClassStats(classes, features)
	for i, doc := range documents {
		stats.add(encoded[i], s.inner.Extract(doc))
	}

	budget := s.budget(features)
	if budget == 0 && features > 0 {
		return fmt.Errorf("vectorizer: selection budget %v keeps none of %d features", s.top, features)
	}
	rows := s.scorer.Score(stats)
	best := selectTop(rows, budget, s.inner.FeatureName)

	sel := &selection{Best: best, Classes: stats.Classes}
	if d, ok := s.scorer.(DeltaIDF); ok {
		sel.Deltas = d.Deltas(stats)
	}
	sel.index()
	s.sel = sel
	return nil
}

func (s *Selector) budget(features int) int {
	n := int(s.top)
	if s.top <= 1 {
		n = int(s.top * float64(features))
	}
	return min(n, features)
}

func selectTop(rows [][]float64, budget int, name func(int) string) []int {
	if len(rows) == 0 || budget == 0 {
		return []int{}
	}
	per := int(math.Ceil(float64(budget) / float64(len(rows))))
	seen := make(map[int]bool)
	best := make([]int, 0, budget)
	for _, row := range rows {
		order := make([]int, len(row))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return cmp.Compare(row[b], row[a])
		})
		for _, idx := range order[:min(per, len(order))] {
			if !seen[idx] {
				seen[idx] = true
				best = append(best, idx)
			}
		}
	}
	if len(best) <= budget {
		return best
	}

	score := make(map[int]float64, len(best))
	for _, idx := range best {
		score[idx] = math.Inf(-1)
		for _, row := range rows {
			score[idx] = max(score[idx], row[idx])
		}
	}
	ranked := slices.Clone(best)
	slices.SortFunc(ranked, func(a, b int) int {
		if c := cmp.Compare(score[b], score[a]); c != 0 {
			return c
		}
		if c := cmp.Compare(name(a), name(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	keep := make(map[int]bool, budget)
	for _, idx := range ranked[:budget] {
		keep[idx] = true
	}
	return slices.DeleteFunc(best, func(idx int) bool { return !keep[idx] })
}

// Extract gathers the retained features of the wrapped extractor's vector.
func (s *Selector) Extract(document string) SparseVector {
	if s.sel == nil {
		return NewSparseVector(0)
	}
	orig := s.inner.Extract(document)
	values := make(map[int]float64)
	for i, idx := range orig.Indices {
		if p, ok := s.sel.pos[idx]; ok {
			values[p] = orig.Values[i]
		}
	}
	return FromMap(len(s.sel.Best), values)
}

// FeaturesCount returns the number of retained features.
func (s *Selector) FeaturesCount() int {
	if s.sel == nil {
		return 0
	}
	return len(s.sel.Best)
}

// FeatureName returns the name of retained feature i.
func (s *Selector) FeatureName(i int) string {
	return s.inner.FeatureName(s.sel.Best[i])
}

// Best returns the original indices of the retained features, in order.
func (s *Selector) Best() []int {
	if s.sel == nil {
		return nil
	}
	return append([]int(nil), s.sel.Best...)
}

// Classes returns the training classes in encoding order.
func (s *Selector) Classes() []string {
	if s.sel == nil {
		return nil
	}
	return append([]string(nil), s.sel.Classes...)
}

// WeightedFeature is a named feature with its signed delta IDF.
type WeightedFeature struct {
	Name  string  `json:"name"`
	Delta float64 `json:"delta"`
}

// TopFeatures returns the n features leaning most towards the first class
// and the n leaning most towards the second, strongest first. Only delta
// IDF selectors carry the signed scores it needs.
func (s *Selector) TopFeatures(n int) (first, second []WeightedFeature, err error) {
	if s.sel == nil {
		return nil, nil, ErrNotLearned
	}
	if s.sel.Deltas == nil {
		return nil, nil, fmt.Errorf("vectorizer: %s selector has no signed feature scores", s.scorer.Name())
	}
	order := make([]int, len(s.sel.Deltas))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(s.sel.Deltas[a], s.sel.Deltas[b])
	})
	n = max(0, min(n, len(order)))
	named := func(idx int) WeightedFeature {
		return WeightedFeature{Name: s.inner.FeatureName(idx), Delta: s.sel.Deltas[idx]}
	}
	for _, idx := range order[:n] {
		first = append(first, named(idx))
	}
	for i := len(order) - 1; i >= len(order)-n; i-- {
		second = append(second, named(order[i]))
	}
	return first, second, nil
}

func (s *Selector) String() string {
	return fmt.Sprintf("FeatureSelector=%s (top=%s), %s",
		s.scorer.Name(), strconv.FormatFloat(s.top, 'g', -1, 64), s.inner.String())
}

type selectorJSON struct {
	Scorer    string          `json:"scorer"`
	Top       float64         `json:"top"`
	Inner     json.RawMessage `json:"inner"`
	Selection *selection      `json:"selection,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s *Selector) MarshalJSON() ([]byte, error) {
	inner, err := MarshalExtractor(s.inner)
	if err != nil {
		return nil, err
	}
	name := "mutual_information"
	if _, ok := s.scorer.(DeltaIDF); ok {
		name = "delta_idf"
	}
	return json.Marshal(selectorJSON{Scorer: name, Top: s.top, Inner: inner, Selection: s.sel})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var in selectorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	scorer, err := ParseScorer(in.Scorer)
	if err != nil {
		return err
	}
	inner, err := UnmarshalExtractor(in.Inner)
	if err != nil {
		return err
	}
	if in.Selection != nil {
		in.Selection.index()
	}
	*s = Selector{inner: inner, scorer: scorer, top: in.Top, sel: in.Selection}
	return nil
}
