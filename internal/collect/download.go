package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/happyhackingspace/senti/internal/search"
	"github.com/happyhackingspace/senti/internal/storage"
	"github.com/spf13/cobra"
)

type downloadOpts struct {
	delay         time.Duration // between tweets
	rateLimitWait time.Duration
	skipWait      time.Duration // after forbidden or missing tweets
}

type downloadStats struct {
	Written     int
	RateLimited int
	Forbidden   int
	NotFound    int
}

func (c *CLI) newDownloadCommand() *cobra.Command {
	var delay, rateLimitWait, skipWait int

	cmd := &cobra.Command{
		Use:   "download <in.csv> <out.csv>",
		Short: "Fetch the texts of an id,label corpus into an id,text,label corpus",
		Long: `Fetch the texts of an id,label corpus into an id,text,label corpus.

Tweets that are rate limited, protected or deleted are skipped. The output
file must not exist.`,
		Args:    cobra.ExactArgs(2),
		Example: `  senti-collect download sanders-ids.csv sanders.csv --delay 1000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("output %s already exists", out)
			}

			f, err := os.Open(in)
			if err != nil {
				return err
			}
			rows, err := storage.ReadIDLabels(f)
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			slog.Info("Loaded ids", "count", len(rows))

			client, err := search.FromEnv(search.WithUserAgent("senti-collect/" + c.version))
			if err != nil {
				return err
			}
			w, err := os.Create(out)
			if err != nil {
				return err
			}
			stats, err := downloadTweets(commandContext(cmd), client, rows, w, downloadOpts{
				delay:         time.Duration(delay) * time.Millisecond,
				rateLimitWait: time.Duration(rateLimitWait) * time.Second,
				skipWait:      time.Duration(skipWait) * time.Second,
			})
			if closeErr := w.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}
			slog.Info("Download complete", "written", stats.Written, "rate_limited", stats.RateLimited,
				"forbidden", stats.Forbidden, "not_found", stats.NotFound)
			return nil
		},
	}

	cmd.Flags().IntVar(&delay, "delay", 5000, "Delay between tweets in ms")
	cmd.Flags().IntVar(&rateLimitWait, "rate-limit-wait", 60, "Pause after a rate limited tweet in seconds")
	cmd.Flags().IntVar(&skipWait, "skip-wait", 5, "Pause after a forbidden or missing tweet in seconds")
	return cmd
}

// downloadTweets fetches the text of every row and writes id,text,label
// records to w as they arrive.
func downloadTweets(ctx context.Context, g statusGetter, rows []storage.Row, w io.Writer, opts downloadOpts) (downloadStats, error) {
	var stats downloadStats
	for i, row := range rows {
		if i > 0 {
			if err := sleep(ctx, opts.delay); err != nil {
				return stats, err
			}
		}

		st, err := g.Get(ctx, row.ID)
		switch {
		case errors.Is(err, search.ErrRateLimited):
			stats.RateLimited++
			slog.Warn("Rate limited, skipping tweet", "id", row.ID)
			if err := sleep(ctx, opts.rateLimitWait); err != nil {
				return stats, err
			}
			continue
		case errors.Is(err, search.ErrForbidden), errors.Is(err, search.ErrNotFound):
			if errors.Is(err, search.ErrForbidden) {
				stats.Forbidden++
			} else {
				stats.NotFound++
			}
			slog.Debug("Skipping tweet", "id", row.ID, "error", err)
			if err := sleep(ctx, opts.skipWait); err != nil {
				return stats, err
			}
			continue
		case err != nil:
			return stats, err
		}

		if err := storage.WriteLabelled(w, []storage.Row{{ID: row.ID, Text: st.Body(), Label: row.Label}}); err != nil {
			return stats, fmt.Errorf("write tweet %s: %w", row.ID, err)
		}
		stats.Written++
		if stats.Written%100 == 0 {
			slog.Info("Downloaded", "tweets", stats.Written, "of", len(rows))
		}
	}
	return stats, nil
}
