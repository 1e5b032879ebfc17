package collect

import (
	"context"
	"log/slog"
	"os"

	"github.com/happyhackingspace/senti/internal/storage"
	"github.com/spf13/cobra"
)

// CLI encapsulates the senti-collect command-line interface.
type CLI struct {
	version string
	verbose bool
	dbPath  string
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:     "senti-collect",
		Short:   "Collect and tag tweets for sentiment classifier training",
		Version: c.version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initLogging()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")
	c.rootCmd.PersistentFlags().StringVar(&c.dbPath, "db", "senti.db", "Dataset database file")

	c.rootCmd.AddCommand(c.newDatasetCommand())
	c.rootCmd.AddCommand(c.newImportCommand())
	c.rootCmd.AddCommand(c.newTagCommand())
	c.rootCmd.AddCommand(c.newDownloadCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	return c.rootCmd.Execute()
}

func (c *CLI) initLogging() {
	if c.verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

// openStore opens the dataset database and resolves name to a dataset.
// An empty name only opens the database.
func (c *CLI) openStore(ctx context.Context, name string) (*storage.DatasetStore, *storage.Dataset, error) {
	store, err := storage.Open(ctx, c.dbPath)
	if err != nil {
		return nil, nil, err
	}
	if name == "" {
		return store, nil, nil
	}
	ds, err := store.DatasetByName(ctx, name)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, ds, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
