package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/happyhackingspace/senti/internal/search"
	"github.com/spf13/cobra"
)

func (c *CLI) newSearchCommand() *cobra.Command {
	var modelPath string
	var lang string
	var count int
	var scores bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search recent tweets and classify them",
		Long: `Search recent tweets and classify them.

The API endpoint and bearer token are read from SENTI_SEARCH_URL and
SENTI_BEARER_TOKEN.`,
		Args: cobra.MinimumNArgs(1),
		Example: `  senti search "new phone" --lang en --count 50
  senti search golang --model model.json --scores`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			m, err := loadModel(modelPath)
			if err != nil {
				return err
			}
			client, err := search.FromEnv(search.WithUserAgent("senti/" + c.version))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			slog.Info("Searching", "query", query, "lang", lang, "count", count)
			statuses, err := client.Search(ctx, search.Query{Text: query, Lang: lang, Count: count})
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				slog.Info("No tweets found", "query", query)
				return nil
			}

			texts := make([]string, len(statuses))
			ids := make([]string, len(statuses))
			for i, s := range statuses {
				texts[i], ids[i] = s.Body(), s.ID
			}
			results, err := classifyTexts(m, texts, ids, scores)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: auto-detect)")
	cmd.Flags().StringVar(&lang, "lang", "en", "Tweet language")
	cmd.Flags().IntVar(&count, "count", 100, "Tweets to request")
	cmd.Flags().BoolVar(&scores, "scores", false, "Show class scores")
	return cmd
}
