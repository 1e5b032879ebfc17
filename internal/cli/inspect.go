package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/happyhackingspace/senti/classifier"
	"github.com/happyhackingspace/senti/vectorizer"
	"github.com/spf13/cobra"
)

func (c *CLI) newInspectCommand() *cobra.Command {
	var modelPath string
	var top int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe a trained model and its most discriminative features",
		Example: `  senti inspect --model model.json
  senti inspect --model model.json --top 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModel(modelPath)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, m.String())
			return inspectFeatures(w, m.Classifier(), top)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: auto-detect)")
	cmd.Flags().IntVar(&top, "top", 20, "Features to list per class")
	return cmd
}

type extractorHolder interface {
	Extractor() vectorizer.Extractor
}

// inspectFeatures lists the top features of every delta IDF selector in
// the classifier graph.
func inspectFeatures(w io.Writer, c classifier.Classifier, n int) error {
	if h, ok := c.(*classifier.Hierarchical); ok {
		if err := inspectFeatures(w, h.First(), n); err != nil {
			return err
		}
		for _, stage := range h.Stages() {
			if err := inspectFeatures(w, stage.Classifier, n); err != nil {
				return err
			}
		}
		return nil
	}

	holder, ok := c.(extractorHolder)
	if !ok {
		return nil
	}
	sel, ok := holder.Extractor().(*vectorizer.Selector)
	if !ok {
		return nil
	}
	first, second, err := sel.TopFeatures(n)
	if errors.Is(err, vectorizer.ErrNotLearned) {
		return err
	}
	if err != nil {
		// scorers without signed scores have nothing to list
		return nil
	}
	classes := sel.Classes()
	printFeatures(w, classes[0], first)
	printFeatures(w, classes[1], second)
	return nil
}

func printFeatures(w io.Writer, class string, features []vectorizer.WeightedFeature) {
	_, _ = fmt.Fprintf(w, "\nTop %s features:\n", class)
	for i, f := range features {
		_, _ = fmt.Fprintf(w, "%4d  %8.4f  %s\n", i+1, f.Delta, f.Name)
	}
}
