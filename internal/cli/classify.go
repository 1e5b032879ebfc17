package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/happyhackingspace/senti"
	"github.com/spf13/cobra"
)

// result is the JSON output for one classified text.
type result struct {
	ID     string             `json:"id,omitempty"`
	Text   string             `json:"text"`
	Label  string             `json:"label"`
	Scores map[string]float64 `json:"scores,omitempty"`
}

func (c *CLI) newClassifyCommand() *cobra.Command {
	var modelPath string
	var scores bool

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify texts given as arguments or one per line on stdin",
		Example: `  # Classify a single text
  senti classify "I love this phone :)"

  # Classify one text per line
  cat tweets.txt | senti classify

  # Show class scores
  senti classify "meh" --scores

  # Use a custom model file
  senti classify "great" --model custom.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if len(texts) == 0 {
				if isStdinTerminal() {
					return cmd.Help()
				}
				var err error
				if texts, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			if len(texts) == 0 {
				return errors.New("no texts to classify")
			}

			start := time.Now()
			m, err := loadModel(modelPath)
			if err != nil {
				return err
			}
			slog.Debug("Model loaded", "duration", time.Since(start))

			start = time.Now()
			results, err := classifyTexts(m, texts, nil, scores)
			if err != nil {
				return err
			}
			slog.Debug("Classification completed", "texts", len(texts), "duration", time.Since(start))
			return printJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: auto-detect)")
	cmd.Flags().BoolVar(&scores, "scores", false, "Show class scores")
	return cmd
}

// classifyTexts labels texts in one batch. ids, when not nil, is parallel
// to texts.
func classifyTexts(m *senti.Model, texts, ids []string, withScores bool) ([]result, error) {
	labels, err := m.ClassifyBatch(texts)
	if err != nil {
		return nil, err
	}
	results := make([]result, len(texts))
	for i, text := range texts {
		results[i] = result{Text: text, Label: labels[i]}
		if ids != nil {
			results[i].ID = ids[i]
		}
		if !withScores {
			continue
		}
		s, err := m.Scores(text)
		if errors.Is(err, senti.ErrNoScores) {
			slog.Debug("Model does not score classes", "model", m.String())
			withScores = false
			continue
		}
		if err != nil {
			return nil, err
		}
		results[i].Scores = s
	}
	return results, nil
}

func loadModel(modelPath string) (*senti.Model, error) {
	if modelPath != "" {
		slog.Debug("Loading custom model", "path", modelPath)
		return senti.Load(modelPath)
	}
	return senti.New()
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func readLines(r io.Reader) ([]string, error) {
	slog.Debug("Reading from stdin")
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return lines, nil
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
