package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/happyhackingspace/senti/internal/search"
	"github.com/happyhackingspace/senti/internal/storage"
	"github.com/spf13/cobra"
)

type importOpts struct {
	lang  string
	count int
	pages int
	delay time.Duration
}

func (c *CLI) newImportCommand() *cobra.Command {
	var (
		queriesFile string
		opts        importOpts
		delay       int
	)

	cmd := &cobra.Command{
		Use:   "import <dataset> [query...]",
		Short: "Search tweets and add them to a dataset",
		Long: `Search tweets and add them to a dataset. Tweets whose text the dataset
already holds are skipped.

The API endpoint and bearer token are read from SENTI_SEARCH_URL and
SENTI_BEARER_TOKEN.`,
		Args: cobra.MinimumNArgs(1),
		Example: `  senti-collect import phones "new phone" --lang en --pages 5
  senti-collect import phones --queries queries.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			queries := args[1:]
			if queriesFile != "" {
				lines, err := loadLines(queriesFile)
				if err != nil {
					return fmt.Errorf("load queries: %w", err)
				}
				queries = append(queries, lines...)
			}
			if len(queries) == 0 {
				return errors.New("no queries given")
			}
			opts.delay = time.Duration(delay) * time.Millisecond

			ctx := commandContext(cmd)
			store, ds, err := c.openStore(ctx, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			client, err := search.FromEnv(search.WithUserAgent("senti-collect/" + c.version))
			if err != nil {
				return err
			}
			added, err := importTweets(ctx, client, store, ds, queries, opts)
			if err != nil {
				return err
			}
			slog.Info("Import complete", "dataset", ds.Name, "queries", len(queries), "added", added)
			return nil
		},
	}

	cmd.Flags().StringVar(&queriesFile, "queries", "", "File with one query per line")
	cmd.Flags().StringVar(&opts.lang, "lang", "en", "Tweet language")
	cmd.Flags().IntVar(&opts.count, "count", 100, "Tweets per request")
	cmd.Flags().IntVar(&opts.pages, "pages", 1, "Result pages per query")
	cmd.Flags().IntVar(&delay, "delay", 1000, "Delay between requests in ms")
	return cmd
}

// importTweets runs every query, following older result pages through
// max_id, and stores the texts in ds. It returns the number of tweets added.
func importTweets(ctx context.Context, s searcher, store *storage.DatasetStore, ds *storage.Dataset, queries []string, opts importOpts) (int, error) {
	total := 0
	for qi, text := range queries {
		q := search.Query{Text: strings.TrimSpace(text), Lang: opts.lang, Count: opts.count}
		for page := 0; page < max(opts.pages, 1); page++ {
			if qi > 0 || page > 0 {
				if err := sleep(ctx, opts.delay); err != nil {
					return total, err
				}
			}

			statuses, err := s.Search(ctx, q)
			if errors.Is(err, search.ErrRateLimited) {
				slog.Warn("Rate limited, skipping query", "query", q.Text, "page", page+1)
				break
			}
			if err != nil {
				return total, err
			}
			if len(statuses) == 0 {
				break
			}

			texts := make([]string, len(statuses))
			for i, st := range statuses {
				texts[i] = st.Body()
			}
			added, err := store.AddTweets(ctx, ds.ID, opts.lang, texts)
			if err != nil {
				return total, err
			}
			total += added
			slog.Info("Imported", "query", q.Text, "page", page+1, "found", len(statuses), "added", added, "total", total)

			next, ok := olderThan(statuses)
			if !ok {
				break
			}
			q.MaxID = next
		}
	}
	return total, nil
}

// olderThan returns the max_id that pages past the oldest status.
func olderThan(statuses []search.Status) (string, bool) {
	var oldest uint64
	for _, st := range statuses {
		id, err := strconv.ParseUint(st.ID, 10, 64)
		if err != nil {
			return "", false
		}
		if oldest == 0 || id < oldest {
			oldest = id
		}
	}
	if oldest <= 1 {
		return "", false
	}
	return strconv.FormatUint(oldest-1, 10), true
}
