package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/happyhackingspace/senti"
	"github.com/happyhackingspace/senti/evaluation"
	"github.com/spf13/cobra"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var input string
	var evalCfg evaluation.Config
	var noShuffle bool
	var flags modelFlags

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a classifier configuration via cross-validation",
		Example: `  senti evaluate --input corpus.csv --cv 10
  senti evaluate --input corpus.csv --config senti.yaml --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}
			evalCfg.Shuffle = !noShuffle

			slog.Info("Evaluating", "folds", evalCfg.Folds, "input", input, "algorithm", cfg.Algorithm)
			start := time.Now()
			report, err := senti.Evaluate(input, cfg, evalCfg)
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	defaults := evaluation.DefaultConfig()
	cmd.Flags().StringVar(&input, "input", "corpus.csv", "Labelled corpus (id,text,label)")
	cmd.Flags().IntVar(&evalCfg.Folds, "cv", defaults.Folds, "Number of cross-validation folds")
	cmd.Flags().Uint64Var(&evalCfg.Seed, "seed", defaults.Seed, "Shuffle seed")
	cmd.Flags().BoolVar(&noShuffle, "no-shuffle", false, "Keep corpus order when building folds")
	flags.register(cmd)
	return cmd
}

func printReport(w io.Writer, r *evaluation.Report) {
	_, _ = fmt.Fprintf(w, "Accuracy: %.1f%% (%d/%d)\n", r.Accuracy*100, r.Correct, r.Total)
	_, _ = fmt.Fprintf(w, "Precision: %.1f%%  Recall: %.1f%%  F1: %.1f%%  (mean of %d folds)\n",
		r.Precision*100, r.Recall*100, r.F1*100, len(r.Folds))
	printConfusionMatrix(w, r.Confusion, r.Classes)
	printClassReport(w, r.PerClass, r.Classes)
}

func printClassReport(w io.Writer, perClass map[string]evaluation.Metrics, classes []string) {
	_, _ = fmt.Fprintf(w, "\nPer-class metrics:\n")
	_, _ = fmt.Fprintf(w, "%10s  %6s  %6s  %6s  %7s\n", "class", "prec", "recall", "f1", "support")
	for _, cls := range classes {
		m := perClass[cls]
		_, _ = fmt.Fprintf(w, "%10s  %5.1f%%  %5.1f%%  %5.1f%%  %7d\n",
			cls, m.Precision*100, m.Recall*100, m.F1*100, m.Support)
	}
}

// printConfusionMatrix prints gold classes as rows, most frequent first.
func printConfusionMatrix(w io.Writer, confusion map[string]map[string]int, classes []string) {
	if len(confusion) == 0 {
		return
	}

	rowTotal := func(cls string) int {
		total := 0
		for _, v := range confusion[cls] {
			total += v
		}
		return total
	}
	classes = slices.Clone(classes)
	slices.SortStableFunc(classes, func(a, b string) int { return rowTotal(b) - rowTotal(a) })

	_, _ = fmt.Fprintf(w, "\nConfusion matrix (rows=true, cols=predicted):\n")
	_, _ = fmt.Fprintf(w, "%10s", "")
	for _, cls := range classes {
		_, _ = fmt.Fprintf(w, " %9.9s", cls)
	}
	_, _ = fmt.Fprintf(w, "  total  acc%%\n")

	for _, gold := range classes {
		_, _ = fmt.Fprintf(w, "%10.10s", gold)
		total, correct := 0, 0
		for _, predicted := range classes {
			count := confusion[gold][predicted]
			total += count
			if gold == predicted {
				correct = count
			}
			if count == 0 {
				_, _ = fmt.Fprintf(w, " %9s", ".")
			} else {
				_, _ = fmt.Fprintf(w, " %9d", count)
			}
		}
		acc := 0.0
		if total > 0 {
			acc = float64(correct) / float64(total) * 100
		}
		_, _ = fmt.Fprintf(w, "  %5d %5.1f\n", total, acc)
	}
}
