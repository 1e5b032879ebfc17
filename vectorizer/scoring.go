package vectorizer

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ClassStats aggregates extracted training vectors per class.
type ClassStats struct {
	Classes   []string
	Documents float64
	DocCounts []float64   // [class]
	Sums      [][]float64 // [class][feature] summed feature values
	Presence  [][]float64 // [class][feature] documents with a non-zero value
}

func newClassStats(classes *Alphabet, features int) *ClassStats {
	n := classes.Size()
	st := &ClassStats{
		Classes:   classes.Strings(),
		DocCounts: make([]float64, n),
		Sums:      make([][]float64, n),
		Presence:  make([][]float64, n),
	}
	for c := range n {
		st.Sums[c] = make([]float64, features)
		st.Presence[c] = make([]float64, features)
	}
	return st
}

func (st *ClassStats) add(class int, v SparseVector) {
	st.Documents++
	st.DocCounts[class]++
	v.AddTo(st.Sums[class], 1)
	for i, idx := range v.Indices {
		if v.Values[i] != 0 {
			st.Presence[class][idx]++
		}
	}
}

// Scorer rates every feature by how well it discriminates classes. Score
// returns one or more rows of per-feature scores, higher is better; the
// selector takes an equal share of its budget from each row.
type Scorer interface {
	Name() string
	// Check rejects class counts the scorer cannot handle.
	Check(classes int) error
	Score(stats *ClassStats) [][]float64
}

// ParseScorer parses "mutual_information" or "delta_idf".
func ParseScorer(s string) (Scorer, error) {
	switch strings.ToLower(s) {
	case "mutual_information", "mi":
		return MutualInformation{}, nil
	case "delta_idf":
		return DeltaIDF{}, nil
	}
	return nil, fmt.Errorf("vectorizer: unknown selection strategy %q", s)
}

// MutualInformation scores each (class, feature) pair by the mutual
// information of feature presence and class membership, computed from a
// Laplace-smoothed 2x2 contingency table.
type MutualInformation struct{}

func (MutualInformation) Name() string { return "MutualInformation" }

func (MutualInformation) Check(classes int) error {
	if classes < 2 {
		return fmt.Errorf("vectorizer: mutual information needs at least two classes, got %d", classes)
	}
	return nil
}

func (MutualInformation) Score(st *ClassStats) [][]float64 {
	features := 0
	if len(st.Presence) > 0 {
		features = len(st.Presence[0])
	}
	present := make([]float64, features)
	for _, row := range st.Presence {
		floats.Add(present, row)
	}

	n := st.Documents + 4
	rows := make([][]float64, len(st.Classes))
	for c := range st.Classes {
		rows[c] = make([]float64, features)
		for f := range features {
			n11 := st.Presence[c][f]
			n10 := present[f] - n11
			n01 := st.DocCounts[c] - n11
			n00 := st.Documents - st.DocCounts[c] - n10
			rows[c][f] = mutualInformation(n11+1, n10+1, n01+1, n00+1, n)
		}
	}
	return rows
}

// mutualInformation evaluates the four-term MI formula in bits. n11 counts
// documents of the class containing the feature, n10 documents outside the
// class containing it, n01 and n00 the same without the feature.
func mutualInformation(n11, n10, n01, n00, n float64) float64 {
	n1x, n0x := n11+n10, n01+n00
	nx1, nx0 := n11+n01, n10+n00
	term := func(nij, ni, nj float64) float64 {
		return nij / n * math.Log2(n*nij/(ni*nj))
	}
	return term(n11, n1x, nx1) + term(n01, n0x, nx1) + term(n10, n1x, nx0) + term(n00, n0x, nx0)
}

// DeltaIDF scores features of a two-class problem by the absolute difference
// of their smoothed inverse class frequencies.
type DeltaIDF struct{}

func (DeltaIDF) Name() string { return "DeltaIdf" }

func (DeltaIDF) Check(classes int) error {
	if classes != 2 {
		return fmt.Errorf("%w: delta IDF got %d classes", ErrNotBinary, classes)
	}
	return nil
}

func (d DeltaIDF) Score(st *ClassStats) [][]float64 {
	deltas := d.Deltas(st)
	abs := make([]float64, len(deltas))
	for i, v := range deltas {
		abs[i] = math.Abs(v)
	}
	return [][]float64{abs}
}

// Deltas returns log2(D0/(C0+1)) - log2(D1/(C1+1)) per feature, where D is
// the class document count and C the number of class documents containing
// the feature.
// Negative values lean to class 0, positive ones to class 1.
func (DeltaIDF) Deltas(st *ClassStats) []float64 {
	features := len(st.Presence[0])
	deltas := make([]float64, features)
	for f := range features {
		deltas[f] = math.Log2(st.DocCounts[0]/(st.Presence[0][f]+1)) - math.Log2(st.DocCounts[1]/(st.Presence[1][f]+1))
	}
	return deltas
}
