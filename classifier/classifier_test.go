package classifier

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/happyhackingspace/senti/preprocess"
	"github.com/happyhackingspace/senti/vectorizer"
)

var (
	trainDocs = []string{
		"I love this movie, it is great :)",
		"What a great day, so happy",
		"happy happy joy, love it",
		"This is awful, I hate it :(",
		"terrible day, so sad",
		"hate hate hate, awful movie",
	}
	trainLabels = []string{"positive", "positive", "positive", "negative", "negative", "negative"}
)

func newNB() *NaiveBayes {
	return NewNaiveBayes(preprocess.Default(), vectorizer.NewNgramExtractor(vectorizer.Count, 1), 1)
}

func TestNaiveBayesSanity(t *testing.T) {
	nb := newNB()
	if err := nb.Learn(trainDocs, trainLabels); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		doc  string
		want string
	}{
		{"love this, great", "positive"},
		{"so happy :)", "positive"},
		{"awful, hate it", "negative"},
		{"sad :(", "negative"},
	}
	for _, tt := range tests {
		got, err := nb.Classify(tt.doc)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.doc, got, tt.want)
		}
	}
	if got := nb.Classes(); !slices.Equal(got, []string{"positive", "negative"}) {
		t.Errorf("Classes = %v", got)
	}
	idx, err := nb.ClassifyIndex("so happy")
	if err != nil || idx != 0 {
		t.Errorf("ClassifyIndex = %d, %v; want 0", idx, err)
	}
}

func TestNaiveBayesScore(t *testing.T) {
	nb := NewNaiveBayes(nil, vectorizer.NewNgramExtractor(vectorizer.Count, 1), 1)
	if err := nb.Learn([]string{"a a b", "b"}, []string{"x", "y"}); err != nil {
		t.Fatal(err)
	}
	got, err := nb.ConditionalProbability(0, "a")
	if err != nil {
		t.Fatal(err)
	}
	// prior 1/2, count(a|x) = 2, sum(x) = 3, two features
	want := math.Log10(0.5) + math.Log10(3.0/5.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("score = %v, want %v", got, want)
	}
	// unseen n-grams do not change the score
	unseen, _ := nb.ConditionalProbability(0, "a zzz")
	if unseen != got {
		t.Errorf("unseen n-gram changed score: %v != %v", unseen, got)
	}
	if _, err := nb.ConditionalProbability(2, "a"); err == nil {
		t.Error("expected error for out of range class")
	}
}

func TestTiesGoToLowestClass(t *testing.T) {
	nb := NewNaiveBayes(nil, vectorizer.NewNgramExtractor(vectorizer.Boolean, 1), 1)
	if err := nb.Learn([]string{"same", "same"}, []string{"first", "second"}); err != nil {
		t.Fatal(err)
	}
	got, err := nb.Classify("same")
	if err != nil {
		t.Fatal(err)
	}
	if got != "first" {
		t.Errorf("Classify = %q, want first", got)
	}
}

func TestLearnErrors(t *testing.T) {
	for _, c := range []Probabilistic{newNB(), NewMaxEnt(nil, vectorizer.NewNgramExtractor(vectorizer.Count, 1), MaxEntConfig{})} {
		if _, err := c.Classify("x"); !errors.Is(err, ErrNotTrained) {
			t.Errorf("%T: classify before learn err = %v", c, err)
		}
		if _, err := c.ConditionalProbability(0, "x"); !errors.Is(err, ErrNotTrained) {
			t.Errorf("%T: score before learn err = %v", c, err)
		}
		if err := c.Learn(nil, nil); !errors.Is(err, ErrEmptyTrainingSet) {
			t.Errorf("%T: empty learn err = %v", c, err)
		}
		if err := c.Learn([]string{"a"}, []string{"x", "y"}); !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("%T: mismatched learn err = %v", c, err)
		}
	}
}

func TestMaxEnt(t *testing.T) {
	m := NewMaxEnt(nil, vectorizer.NewNgramExtractor(vectorizer.Boolean, 1), MaxEntConfig{Step: 0.5, MaxIterations: 50})
	if err := m.Learn([]string{"good great", "bad awful"}, []string{"pos", "neg"}); err != nil {
		t.Fatal(err)
	}
	norms := m.Norms()
	if len(norms) == 0 || len(norms) > 50 {
		t.Fatalf("recorded %d norms", len(norms))
	}
	for i := 1; i < len(norms); i++ {
		if norms[i] > norms[i-1] {
			t.Errorf("norm increased at iteration %d: %v > %v", i, norms[i], norms[i-1])
		}
	}
	if got, _ := m.Classify("great"); got != "pos" {
		t.Errorf("Classify(great) = %q", got)
	}
	if got, _ := m.Classify("awful"); got != "neg" {
		t.Errorf("Classify(awful) = %q", got)
	}

	var sum float64
	for c := range m.Classes() {
		p, err := m.ConditionalProbability(c, "good bad")
		if err != nil {
			t.Fatal(err)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %v", sum)
	}
}

func TestMaxEntConvergence(t *testing.T) {
	m := NewMaxEnt(nil, vectorizer.NewNgramExtractor(vectorizer.Boolean, 1), MaxEntConfig{Step: 1, Epsilon: 0.5, MaxIterations: 1000})
	if err := m.Learn([]string{"good", "bad"}, []string{"pos", "neg"}); err != nil {
		t.Fatal(err)
	}
	norms := m.Norms()
	if len(norms) == 1000 {
		t.Fatal("training did not converge before the iteration cap")
	}
	if last := norms[len(norms)-1]; last > 0.5 {
		t.Errorf("last norm = %v, want <= epsilon", last)
	}
}

func TestDictionary(t *testing.T) {
	d := NewDictionary(preprocess.Default(), []string{"good", "great"}, []string{"bad"})
	tests := []struct {
		doc  string
		want string
	}{
		{"Good GREAT bad", Positive},
		{"bad bad good", Negative},
		{"good bad", Positive},
		{"nothing here", Positive},
	}
	for _, tt := range tests {
		got, err := d.Classify(tt.doc)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.doc, got, tt.want)
		}
	}
	if err := d.Learn(nil, nil); err != nil {
		t.Errorf("Learn should be a no-op, got %v", err)
	}
}

func TestLoadDictionary(t *testing.T) {
	dir := t.TempDir()
	pos := filepath.Join(dir, "positive-words.txt")
	neg := filepath.Join(dir, "negative-words.txt")
	if err := os.WriteFile(pos, []byte("; opinion lexicon\n;\n\nlove\nnice\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(neg, []byte("; negative\nugly\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadDictionary(nil, pos, neg)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.positive) != 2 || len(d.negative) != 1 || d.positive[";"] {
		t.Errorf("lexicons = %v / %v", d.positive, d.negative)
	}
	if got, _ := d.Classify("ugly"); got != Negative {
		t.Errorf("Classify(ugly) = %q", got)
	}
	if _, err := LoadDictionary(nil, filepath.Join(dir, "missing"), neg); err == nil {
		t.Error("expected error for missing lexicon")
	}
}

type fixed struct {
	label string
	err   error
}

func (f fixed) Learn([]string, []string) error             { return nil }
func (f fixed) Classify(string) (string, error)            { return f.label, f.err }
func (f fixed) ClassifyBatch(d []string) ([]string, error) { return classifyBatch(f, d) }
func (f fixed) String() string                             { return "fixed(" + f.label + ")" }

func TestHierarchical(t *testing.T) {
	h := NewHierarchical(fixed{label: "subjective"},
		Stage{Trigger: "objective", Classifier: fixed{label: "never"}},
		Stage{Trigger: "subjective", Classifier: fixed{label: "positive"}},
	)
	got, err := h.Classify("anything")
	if err != nil {
		t.Fatal(err)
	}
	if got != "positive" {
		t.Errorf("Classify = %q, want positive", got)
	}

	h = NewHierarchical(fixed{label: "neutral"}, Stage{Trigger: "subjective", Classifier: fixed{label: "positive"}})
	if got, _ := h.Classify("x"); got != "neutral" {
		t.Errorf("untriggered Classify = %q, want neutral", got)
	}

	boom := errors.New("boom")
	h = NewHierarchical(fixed{err: boom})
	if _, err := h.ClassifyBatch([]string{"x"}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want first-stage error", err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	nb := newNB()
	me := NewMaxEnt(preprocess.Default(),
		vectorizer.NewSelector(vectorizer.NewNgramExtractor(vectorizer.Count, 1, 2), vectorizer.DeltaIDF{}, 0.8),
		MaxEntConfig{MaxIterations: 20})
	for _, c := range []Classifier{nb, me} {
		if err := c.Learn(trainDocs, trainLabels); err != nil {
			t.Fatal(err)
		}
	}
	dict := NewDictionary(preprocess.Default(), []string{"love", "great"}, []string{"hate"})
	hier := NewHierarchical(dict, Stage{Trigger: Positive, Classifier: nb})

	probe := []string{"love it", "hate this awful day", "meh", "so happy :)"}
	for _, c := range []Classifier{nb, me, dict, hier} {
		var buf bytes.Buffer
		if err := Save(&buf, c); err != nil {
			t.Fatalf("%T: %v", c, err)
		}
		restored, err := Load(&buf)
		if err != nil {
			t.Fatalf("%T: %v", c, err)
		}
		want, err := c.ClassifyBatch(probe)
		if err != nil {
			t.Fatal(err)
		}
		got, err := restored.ClassifyBatch(probe)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, want) {
			t.Errorf("%T: restored predictions %v, want %v", c, got, want)
		}
		if restored.String() != c.String() {
			t.Errorf("%T: restored String = %q, want %q", c, restored.String(), c.String())
		}
	}
}

func TestSaveFile(t *testing.T) {
	nb := newNB()
	if err := nb.Learn(trainDocs, trainLabels); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := SaveFile(path, nb); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*NaiveBayes); !ok {
		t.Errorf("LoadFile returned %T", c)
	}
	if _, err := Unmarshal([]byte(`{"kind":"svm","state":{}}`)); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := Marshal(fixed{}); err == nil {
		t.Error("expected error for unregistered classifier")
	}
}

func TestDescribe(t *testing.T) {
	c := NewNaiveBayes(preprocess.NewChain(preprocess.Lowercase()), vectorizer.NewNgramExtractor(vectorizer.Count, 1, 2), 0.5)
	want := "Classifier=NaiveBayes (alpha=0.5), Preprocessor=[lowercase], FeatureExtractor=NgramExtractorCount (ngrams=[1, 2])"
	if got := c.String(); got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
	h := NewHierarchical(fixed{label: "a"}, Stage{Trigger: "a", Classifier: fixed{label: "b"}})
	if got := h.String(); !strings.Contains(got, "a=[fixed(b)]") {
		t.Errorf("String = %q", got)
	}
}
