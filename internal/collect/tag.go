package collect

import (
	"context"
	"log/slog"

	"github.com/happyhackingspace/senti"
	"github.com/happyhackingspace/senti/internal/storage"
	"github.com/spf13/cobra"
)

func (c *CLI) newTagCommand() *cobra.Command {
	var (
		modelPath string
		batch     int
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "tag <dataset>",
		Short: "Label the untagged tweets of a dataset with a trained model",
		Args:  cobra.ExactArgs(1),
		Example: `  senti-collect tag phones --model model.json
  senti-collect tag phones --model model.json --limit 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := senti.Load(modelPath)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			store, ds, err := c.openStore(ctx, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tagged, err := tagDataset(ctx, m, store, ds, batch, limit)
			if err != nil {
				return err
			}
			slog.Info("Tagging complete", "dataset", ds.Name, "tagged", tagged)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "model.json", "Path to model file")
	cmd.Flags().IntVar(&batch, "batch", 500, "Tweets classified per batch")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max tweets to tag (0=all)")
	return cmd
}

// tagDataset classifies untagged tweets batch by batch until none are left
// or limit tweets were tagged.
func tagDataset(ctx context.Context, m *senti.Model, store *storage.DatasetStore, ds *storage.Dataset, batch, limit int) (int, error) {
	if batch <= 0 {
		batch = 500
	}
	tagged := 0
	for limit <= 0 || tagged < limit {
		n := batch
		if limit > 0 {
			n = min(n, limit-tagged)
		}
		tweets, err := store.Untagged(ctx, ds.ID, n)
		if err != nil {
			return tagged, err
		}
		if len(tweets) == 0 {
			break
		}

		texts := make([]string, len(tweets))
		for i, t := range tweets {
			texts[i] = t.Text
		}
		labels, err := m.ClassifyBatch(texts)
		if err != nil {
			return tagged, err
		}
		for i, t := range tweets {
			if err := store.Tag(ctx, t.ID, labels[i]); err != nil {
				return tagged, err
			}
		}
		tagged += len(tweets)
		slog.Debug("Tagged batch", "dataset", ds.Name, "batch", len(tweets), "total", tagged)
	}
	return tagged, nil
}
