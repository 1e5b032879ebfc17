package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/happyhackingspace/senti/internal/storage"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	pos := []string{"I love it :)", "so happy today", "great movie, loved it", "what a lovely day", "happy happy joy"}
	neg := []string{"I hate it :(", "so sad today", "awful movie, hated it", "what a terrible day", "sad sad cry"}
	var rows []storage.Row
	for i := range pos {
		rows = append(rows,
			storage.Row{ID: "p" + strconv.Itoa(i), Text: pos[i], Label: "positive"},
			storage.Row{ID: "n" + strconv.Itoa(i), Text: neg[i], Label: "negative"})
	}
	path := filepath.Join(t.TempDir(), "corpus.csv")
	if err := storage.WriteLabelledSet(path, rows); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New("test")
	var out bytes.Buffer
	c.rootCmd.SetOut(&out)
	c.rootCmd.SetErr(&out)
	c.rootCmd.SetArgs(append([]string{"-s"}, args...))
	err := c.Run()
	return out.String(), err
}

func TestTrainAndClassify(t *testing.T) {
	input := writeCorpus(t)
	model := filepath.Join(t.TempDir(), "model.json")

	if _, err := run(t, "train", model, "--input", input, "--all-preprocessors", "--ngrams", "1,2"); err != nil {
		t.Fatalf("train: %v", err)
	}

	out, err := run(t, "classify", "--model", model, "--scores", "so happy", "sad day")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	var results []result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Label != "positive" || results[1].Label != "negative" {
		t.Errorf("labels = %q, %q", results[0].Label, results[1].Label)
	}
	if len(results[0].Scores) != 2 {
		t.Errorf("scores = %v", results[0].Scores)
	}
}

func TestTrainInvalidFlags(t *testing.T) {
	input := writeCorpus(t)
	model := filepath.Join(t.TempDir(), "model.json")
	if _, err := run(t, "train", model, "--input", input, "--algorithm", "svm"); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
	if _, err := run(t, "train", model, "--input", input, "--weighting", "tf"); err == nil {
		t.Fatal("expected error for unknown weighting")
	}
}

func TestEvaluate(t *testing.T) {
	input := writeCorpus(t)
	out, err := run(t, "evaluate", "--input", input, "--cv", "5", "--seed", "3")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, want := range []string{"Accuracy:", "Confusion matrix", "Per-class metrics", "positive", "negative"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestInspectDeltaIDF(t *testing.T) {
	input := writeCorpus(t)
	model := filepath.Join(t.TempDir(), "model.json")
	if _, err := run(t, "train", model, "--input", input, "--selector", "delta_idf", "--top", "0.5"); err != nil {
		t.Fatalf("train: %v", err)
	}
	out, err := run(t, "inspect", "--model", model, "--top", "3")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"Classifier=NaiveBayes", "FeatureSelector=DeltaIdf", "Top positive features", "Top negative features"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
	if _, err := run(t, "inspect", "--model", model, "--top", "-1"); err != nil {
		t.Errorf("inspect --top -1: %v", err)
	}
}

func TestPrintConfusionMatrix(t *testing.T) {
	var buf bytes.Buffer
	classes := []string{"a", "b"}
	printConfusionMatrix(&buf, map[string]map[string]int{
		"a": {"a": 1},
		"b": {"b": 3, "a": 1},
	}, classes)
	out := buf.String()
	if classes[0] != "a" {
		t.Error("caller's class order was modified")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[2]), "b") {
		t.Errorf("most frequent class should come first:\n%s", out)
	}
	if !strings.Contains(lines[2], "75.0") {
		t.Errorf("row b accuracy should be 75.0:\n%s", out)
	}
}
