package collect

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/happyhackingspace/senti/internal/search"
)

// searcher and statusGetter are the parts of the search client the
// commands use (allows testing).
type searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Status, error)
}

type statusGetter interface {
	Get(ctx context.Context, id string) (*search.Status, error)
}

func loadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
