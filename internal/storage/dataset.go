package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a dataset or tweet does not exist.
var ErrNotFound = errors.New("storage: not found")

// Dataset is a named collection of tweets.
type Dataset struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	Tweets      int
	Tagged      int
}

// Tweet is a collected tweet. Label is empty until the tweet is tagged.
type Tweet struct {
	ID        string
	DatasetID string
	Lang      string
	Text      string
	Label     string
}

// DatasetStore keeps datasets of collected tweets in SQLite.
type DatasetStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open opens or creates the store at path.
func Open(ctx context.Context, path string) (*DatasetStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("storage: %s: %w", pragma, err)
		}
	}
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: init schema: %w", err)
	}
	return &DatasetStore{db: db, entropy: ulid.Monotonic(rand.Reader, 0)}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id TEXT PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tweets (
	id TEXT PRIMARY KEY,
	dataset_id TEXT NOT NULL,
	lang TEXT NOT NULL DEFAULT '',
	text TEXT NOT NULL,
	label TEXT,
	UNIQUE(dataset_id, text),
	FOREIGN KEY(dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Close closes the database.
func (s *DatasetStore) Close() error {
	return s.db.Close()
}

func (s *DatasetStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}

// CreateDataset adds a dataset and returns it.
func (s *DatasetStore) CreateDataset(ctx context.Context, name, description string) (*Dataset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("storage: dataset name is required")
	}
	d := &Dataset{ID: s.newID(), Name: name, Description: description, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.Name, d.Description, d.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("storage: create dataset %q: %w", name, err)
	}
	return d, nil
}

const datasetQuery = `
SELECT d.id, d.name, d.description, d.created_at,
	COUNT(t.id), COUNT(t.label)
FROM datasets d LEFT JOIN tweets t ON t.dataset_id = d.id
`

// Datasets lists all datasets by name with their tweet counts.
func (s *DatasetStore) Datasets(ctx context.Context) ([]Dataset, error) {
	rows, err := s.db.QueryContext(ctx, datasetQuery+`GROUP BY d.id ORDER BY d.name`)
	if err != nil {
		return nil, fmt.Errorf("storage: list datasets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// DatasetByName looks a dataset up by name.
func (s *DatasetStore) DatasetByName(ctx context.Context, name string) (*Dataset, error) {
	row := s.db.QueryRowContext(ctx, datasetQuery+`WHERE d.name = ? GROUP BY d.id`, name)
	d, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: dataset %q", ErrNotFound, name)
	}
	return d, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(sc scanner) (*Dataset, error) {
	var d Dataset
	var created string
	if err := sc.Scan(&d.ID, &d.Name, &d.Description, &created, &d.Tweets, &d.Tagged); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("storage: dataset %s: bad created_at: %w", d.ID, err)
	}
	d.CreatedAt = t
	return &d, nil
}

// DeleteDataset removes a dataset and its tweets.
func (s *DatasetStore) DeleteDataset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete dataset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: dataset %s", ErrNotFound, id)
	}
	return nil
}

// AddTweets stores texts in a dataset, skipping texts the dataset already
// holds. It returns the number of tweets added.
func (s *DatasetStore) AddTweets(ctx context.Context, datasetID, lang string, texts []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets WHERE id = ?`, datasetID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("storage: %w", err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("%w: dataset %s", ErrNotFound, datasetID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tweets (id, dataset_id, lang, text) VALUES (?, ?, ?, ?) ON CONFLICT(dataset_id, text) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("storage: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	added := 0
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		res, err := stmt.ExecContext(ctx, s.newID(), datasetID, lang, text)
		if err != nil {
			return 0, fmt.Errorf("storage: add tweet: %w", err)
		}
		n, _ := res.RowsAffected()
		added += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: %w", err)
	}
	return added, nil
}

// Tag sets the label of a tweet.
func (s *DatasetStore) Tag(ctx context.Context, tweetID, label string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tweets SET label = ? WHERE id = ?`, label, tweetID)
	if err != nil {
		return fmt.Errorf("storage: tag tweet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: tweet %s", ErrNotFound, tweetID)
	}
	return nil
}

// Untagged returns up to limit tweets of a dataset without a label, oldest
// first. A non-positive limit returns all of them.
func (s *DatasetStore) Untagged(ctx context.Context, datasetID string, limit int) ([]Tweet, error) {
	q := `SELECT id, dataset_id, lang, text, '' FROM tweets WHERE dataset_id = ? AND label IS NULL ORDER BY id`
	args := []any{datasetID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryTweets(ctx, q, args...)
}

// Tweets returns every tweet of a dataset, oldest first.
func (s *DatasetStore) Tweets(ctx context.Context, datasetID string) ([]Tweet, error) {
	return s.queryTweets(ctx,
		`SELECT id, dataset_id, lang, text, COALESCE(label, '') FROM tweets WHERE dataset_id = ? ORDER BY id`, datasetID)
}

func (s *DatasetStore) queryTweets(ctx context.Context, q string, args ...any) ([]Tweet, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: query tweets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Tweet
	for rows.Next() {
		var t Tweet
		if err := rows.Scan(&t.ID, &t.DatasetID, &t.Lang, &t.Text, &t.Label); err != nil {
			return nil, fmt.Errorf("storage: scan tweet: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LabelledSet returns the tagged tweets of a dataset as corpus rows.
func (s *DatasetStore) LabelledSet(ctx context.Context, datasetID string) ([]Row, error) {
	tweets, err := s.queryTweets(ctx,
		`SELECT id, dataset_id, lang, text, label FROM tweets WHERE dataset_id = ? AND label IS NOT NULL ORDER BY id`, datasetID)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(tweets))
	for i, t := range tweets {
		rows[i] = Row{ID: t.ID, Text: t.Text, Label: t.Label}
	}
	return rows, nil
}
