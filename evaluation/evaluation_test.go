package evaluation

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/happyhackingspace/senti/classifier"
	"github.com/happyhackingspace/senti/preprocess"
	"github.com/happyhackingspace/senti/vectorizer"
)

func TestMeasures(t *testing.T) {
	gold := []string{"a", "a", "b", "b"}
	predicted := []string{"a", "b", "b", "b"}

	m := Measures("a", gold, predicted)
	if m.Precision != 1 || m.Recall != 0.5 || math.Abs(m.F1-2.0/3.0) > 1e-12 || m.Support != 2 {
		t.Errorf("Measures(a) = %+v", m)
	}
	m = Measures("c", gold, predicted)
	if m.Precision != 0 || m.Recall != 0 || m.F1 != 0 {
		t.Errorf("absent label should score 0, got %+v", m)
	}
}

func separable() (docs, labels []string) {
	for i := range 20 {
		if i%2 == 0 {
			docs = append(docs, "good great lovely")
			labels = append(labels, "positive")
		} else {
			docs = append(docs, "bad awful horrible")
			labels = append(labels, "negative")
		}
	}
	return docs, labels
}

func TestCrossValidateSeparable(t *testing.T) {
	docs, labels := separable()
	nb := classifier.NewNaiveBayes(preprocess.Default(), vectorizer.NewNgramExtractor(vectorizer.Boolean, 1), 1)
	report, err := CrossValidate(nb, docs, labels, Config{Folds: 5, Seed: 7, Shuffle: true})
	if err != nil {
		t.Fatal(err)
	}
	if report.F1 != 1 || report.Precision != 1 || report.Recall != 1 {
		t.Errorf("macro P/R/F1 = %v/%v/%v, want 1", report.Precision, report.Recall, report.F1)
	}
	if report.Accuracy != 1 || report.Total != 20 {
		t.Errorf("accuracy = %v over %d", report.Accuracy, report.Total)
	}
	if len(report.Folds) != 5 {
		t.Errorf("folds = %d, want 5", len(report.Folds))
	}
	if got := report.PerClass["positive"]; got.F1 != 1 || got.Support != 10 {
		t.Errorf("positive metrics = %+v", got)
	}
	if report.Confusion["negative"]["negative"] != 10 || report.Confusion["negative"]["positive"] != 0 {
		t.Errorf("confusion = %v", report.Confusion)
	}
}

// recorder predicts the first training label and records fold sizes.
type recorder struct {
	label string
	sizes []int
}

func (r *recorder) Learn(docs, labels []string) error {
	r.label = labels[0]
	return nil
}

func (r *recorder) Classify(string) (string, error) { return r.label, nil }

func (r *recorder) ClassifyBatch(docs []string) ([]string, error) {
	r.sizes = append(r.sizes, len(docs))
	out := make([]string, len(docs))
	for i := range out {
		out[i] = r.label
	}
	return out, nil
}

func (r *recorder) String() string { return "recorder" }

func TestFoldSizes(t *testing.T) {
	docs := strings.Fields("a b c d e f g h i j")
	labels := make([]string, len(docs))
	for i := range labels {
		labels[i] = "x"
	}
	r := &recorder{}
	if _, err := CrossValidate(r, docs, labels, Config{Folds: 3}); err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, s := range r.sizes {
		total += s
		if s < 3 || s > 4 {
			t.Errorf("fold size %d, want 3 or 4", s)
		}
	}
	if len(r.sizes) != 3 || total != 10 {
		t.Errorf("sizes = %v", r.sizes)
	}
}

func TestCrossValidateDeterministic(t *testing.T) {
	docs := []string{"good", "bad", "good fun", "bad day", "fun", "sad", "great", "awful", "nice", "ugly"}
	labels := []string{"p", "n", "p", "n", "p", "n", "p", "n", "p", "n"}
	run := func() *Report {
		nb := classifier.NewNaiveBayes(nil, vectorizer.NewNgramExtractor(vectorizer.Count, 1), 1)
		report, err := CrossValidate(nb, docs, labels, Config{Folds: 5, Seed: 42, Shuffle: true})
		if err != nil {
			t.Fatal(err)
		}
		return report
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed produced different reports:\n%+v\n%+v", a, b)
	}
}

func TestCrossValidateErrors(t *testing.T) {
	r := &recorder{}
	if _, err := CrossValidate(r, []string{"a"}, []string{"x"}, Config{Folds: 1}); err == nil {
		t.Error("expected error for a single fold")
	}
	if _, err := CrossValidate(r, []string{"a", "b"}, []string{"x", "y"}, Config{Folds: 3}); !errors.Is(err, ErrTooFewDocuments) {
		t.Errorf("err = %v, want ErrTooFewDocuments", err)
	}
	if _, err := CrossValidate(r, []string{"a"}, nil, DefaultConfig()); err == nil {
		t.Error("expected error for mismatched lengths")
	}

	nb := classifier.NewNaiveBayes(nil, vectorizer.NewDeltaTFIDFExtractor(vectorizer.DefaultDeltaLabels(), 1), 1)
	docs := []string{"a", "b", "c", "d"}
	labels := []string{"positive", "positive", "positive", "negative"}
	if _, err := CrossValidate(nb, docs, labels, Config{Folds: 4}); !errors.Is(err, vectorizer.ErrNotBinary) {
		t.Errorf("err = %v, want fold learn error", err)
	}
}
