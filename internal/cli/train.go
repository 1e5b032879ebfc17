package cli

import (
	"log/slog"
	"time"

	"github.com/happyhackingspace/senti"
	"github.com/spf13/cobra"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var input string
	var flags modelFlags

	cmd := &cobra.Command{
		Use:   "train <modelfile>",
		Short: "Train a classifier on a labelled CSV corpus",
		Args:  cobra.ExactArgs(1),
		Example: `  senti train model.json --input corpus.csv
  senti train model.json --input corpus.csv --config senti.yaml
  senti train model.json --input corpus.csv --algorithm max_ent --ngrams 1,2 --all-preprocessors
  senti train model.json --input corpus.csv --weighting delta_tfidf --selector delta_idf --top 0.2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			modelPath := args[0]
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}

			slog.Info("Training classifier", "input", input, "output", modelPath, "algorithm", cfg.Algorithm)
			start := time.Now()
			m, err := senti.Train(input, cfg)
			if err != nil {
				return err
			}
			slog.Debug("Training completed", "duration", time.Since(start))
			if err := m.Save(modelPath); err != nil {
				return err
			}
			slog.Info("Model saved", "path", modelPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "corpus.csv", "Labelled corpus (id,text,label)")
	flags.register(cmd)
	return cmd
}
