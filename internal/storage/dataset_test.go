package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *DatasetStore {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "senti.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDatasetStore(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	d, err := s.CreateDataset(ctx, "movies", "movie tweets")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateDataset(ctx, "movies", "again"); err == nil {
		t.Error("expected error for duplicate dataset name")
	}

	added, err := s.AddTweets(ctx, d.ID, "en", []string{"great film", "awful film", "great film", "  "})
	if err != nil {
		t.Fatal(err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2 (duplicates and blanks skipped)", added)
	}
	added, _ = s.AddTweets(ctx, d.ID, "en", []string{"awful film", "boring"})
	if added != 1 {
		t.Errorf("second batch added = %d, want 1", added)
	}

	untagged, err := s.Untagged(ctx, d.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(untagged) != 2 || untagged[0].Text != "great film" {
		t.Fatalf("untagged = %+v", untagged)
	}
	if err := s.Tag(ctx, untagged[0].ID, "positive"); err != nil {
		t.Fatal(err)
	}
	if err := s.Tag(ctx, untagged[1].ID, "negative"); err != nil {
		t.Fatal(err)
	}
	if err := s.Tag(ctx, "nope", "positive"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	rows, err := s.LabelledSet(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Label != "positive" || rows[1].Text != "awful film" {
		t.Errorf("labelled set = %+v", rows)
	}
	rest, _ := s.Untagged(ctx, d.ID, 0)
	if len(rest) != 1 || rest[0].Text != "boring" {
		t.Errorf("remaining untagged = %+v", rest)
	}

	all, err := s.Datasets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Tweets != 3 || all[0].Tagged != 2 {
		t.Errorf("datasets = %+v", all)
	}
	byName, err := s.DatasetByName(ctx, "movies")
	if err != nil || byName.ID != d.ID {
		t.Errorf("DatasetByName = %+v, %v", byName, err)
	}
}

func TestDatasetStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if _, err := s.DatasetByName(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DatasetByName err = %v", err)
	}
	if _, err := s.AddTweets(ctx, "ghost", "en", []string{"x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddTweets err = %v", err)
	}
	if err := s.DeleteDataset(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteDataset err = %v", err)
	}

	d, _ := s.CreateDataset(ctx, "tmp", "")
	_, _ = s.AddTweets(ctx, d.ID, "ru", []string{"привет"})
	if err := s.DeleteDataset(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	tweets, err := s.Tweets(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tweets) != 0 {
		t.Errorf("tweets of deleted dataset = %+v", tweets)
	}
}
