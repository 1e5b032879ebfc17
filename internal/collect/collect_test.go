package collect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/happyhackingspace/senti"
	"github.com/happyhackingspace/senti/internal/search"
	"github.com/happyhackingspace/senti/internal/storage"
)

type fakeSearcher struct {
	pages   map[string][]search.Status // keyed by max_id
	queries []search.Query
}

func (f *fakeSearcher) Search(ctx context.Context, q search.Query) ([]search.Status, error) {
	f.queries = append(f.queries, q)
	if q.Text == "limited" {
		return nil, &search.APIError{StatusCode: 429}
	}
	return f.pages[q.MaxID], nil
}

type fakeGetter map[string]error

func (f fakeGetter) Get(ctx context.Context, id string) (*search.Status, error) {
	if err := f[id]; err != nil {
		return nil, err
	}
	return &search.Status{ID: id, Text: "text of " + id}, nil
}

func newStore(t *testing.T) (*storage.DatasetStore, *storage.Dataset) {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "senti.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ds, err := store.CreateDataset(ctx, "test", "")
	if err != nil {
		t.Fatal(err)
	}
	return store, ds
}

func TestImportTweetsPaginates(t *testing.T) {
	store, ds := newStore(t)
	s := &fakeSearcher{pages: map[string][]search.Status{
		"": {
			{ID: "30", Text: "i love it"},
			{ID: "20", Text: "i hate it"},
		},
		"19": {
			{ID: "15", Text: "i love it"},
			{ID: "10", Text: "meh"},
		},
	}}

	added, err := importTweets(context.Background(), s, store, ds, []string{"it", "limited"}, importOpts{lang: "en", count: 2, pages: 3})
	if err != nil {
		t.Fatal(err)
	}
	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}
	// page 3 asks for max_id 9 and gets nothing; the rate limited query is skipped
	if len(s.queries) != 4 {
		t.Fatalf("queries = %+v", s.queries)
	}
	if s.queries[1].MaxID != "19" || s.queries[2].MaxID != "9" {
		t.Errorf("max ids = %q, %q", s.queries[1].MaxID, s.queries[2].MaxID)
	}
	if s.queries[0].Lang != "en" || s.queries[0].Count != 2 {
		t.Errorf("query = %+v", s.queries[0])
	}
}

func TestOlderThan(t *testing.T) {
	if id, ok := olderThan([]search.Status{{ID: "100"}, {ID: "42"}}); !ok || id != "41" {
		t.Errorf("olderThan = %q, %v", id, ok)
	}
	if _, ok := olderThan([]search.Status{{ID: "abc"}}); ok {
		t.Error("non-numeric ids should stop paging")
	}
}

func TestTagDataset(t *testing.T) {
	ctx := context.Background()
	store, ds := newStore(t)
	if _, err := store.AddTweets(ctx, ds.ID, "en", []string{"so happy", "so sad", "happy day", "sad day", "happy"}); err != nil {
		t.Fatal(err)
	}

	cfg := senti.DefaultConfig()
	m, err := senti.TrainDocuments(
		[]string{"happy", "happy joy", "sad", "sad cry"},
		[]string{"positive", "positive", "negative", "negative"}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	tagged, err := tagDataset(ctx, m, store, ds, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if tagged != 3 {
		t.Errorf("tagged = %d, want 3", tagged)
	}

	tagged, err = tagDataset(ctx, m, store, ds, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tagged != 2 {
		t.Errorf("second pass tagged = %d, want 2", tagged)
	}

	rows, err := store.LabelledSet(ctx, ds.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("labelled rows = %d, want 5", len(rows))
	}
	for _, r := range rows {
		want := "negative"
		if strings.Contains(r.Text, "happy") {
			want = "positive"
		}
		if r.Label != want {
			t.Errorf("%q tagged %q, want %q", r.Text, r.Label, want)
		}
	}
}

func TestDownloadTweets(t *testing.T) {
	rows := []storage.Row{
		{ID: "1", Label: "positive"},
		{ID: "2", Label: "negative"},
		{ID: "3", Label: "neutral"},
		{ID: "4", Label: "positive"},
		{ID: "5", Label: "negative"},
	}
	g := fakeGetter{
		"2": &search.APIError{StatusCode: 429},
		"3": &search.APIError{StatusCode: 403},
		"4": &search.APIError{StatusCode: 404},
	}

	var buf bytes.Buffer
	stats, err := downloadTweets(context.Background(), g, rows, &buf, downloadOpts{})
	if err != nil {
		t.Fatal(err)
	}
	want := downloadStats{Written: 2, RateLimited: 1, Forbidden: 1, NotFound: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	got, err := storage.ReadLabelled(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != (storage.Row{ID: "1", Text: "text of 1", Label: "positive"}) || got[1].ID != "5" {
		t.Errorf("rows = %+v", got)
	}
}

func TestDownloadTweetsFailsOnOtherErrors(t *testing.T) {
	g := fakeGetter{"1": errors.New("boom")}
	var buf bytes.Buffer
	_, err := downloadTweets(context.Background(), g, []storage.Row{{ID: "1", Label: "x"}}, &buf, downloadOpts{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDatasetCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "senti.db")
	run := func(args ...string) string {
		t.Helper()
		c := New("test")
		var out bytes.Buffer
		c.rootCmd.SetOut(&out)
		c.rootCmd.SetArgs(append([]string{"--db", db}, args...))
		if err := c.Run(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	run("dataset", "create", "phones", "--description", "phone tweets")

	ctx := context.Background()
	store, err := storage.Open(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := store.DatasetByName(ctx, "phones")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddTweets(ctx, ds.ID, "en", []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	tweets, _ := store.Tweets(ctx, ds.ID)
	if err := store.Tag(ctx, tweets[0].ID, "positive"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	out := run("dataset", "list")
	if !strings.Contains(out, "phones") || !strings.Contains(out, "phone tweets") {
		t.Errorf("list output:\n%s", out)
	}

	corpus := filepath.Join(dir, "corpus.csv")
	run("dataset", "export", "phones", corpus)
	data, err := os.ReadFile(corpus)
	if err != nil {
		t.Fatal(err)
	}
	if want := fmt.Sprintf("%s,a,positive\n", tweets[0].ID); string(data) != want {
		t.Errorf("export = %q, want %q", data, want)
	}

	run("dataset", "delete", "phones")
	if out := run("dataset", "list"); strings.Contains(out, "phones") {
		t.Errorf("dataset still listed after delete:\n%s", out)
	}
}
