package cli

import (
	"fmt"
	"log/slog"

	"github.com/happyhackingspace/senti/internal/banner"
	"github.com/spf13/cobra"
)

// CLI is the senti command tree: training, classifying and evaluating
// models, searching and scoring live tweets, and inspecting saved models.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	initialized bool
	rootCmd     *cobra.Command
}

// New builds the senti command tree reporting the given version.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "senti",
		Short: "Tweet sentiment classifier",
		Long: `senti trains sentiment models on labelled tweet corpora and applies them.

  train      fit a model on a corpus and save it
  classify   label text from arguments or stdin
  evaluate   cross-validate a model configuration on a corpus
  search     score tweets returned by the search API
  inspect    show a saved model and its most informative features
  up         update senti to the latest release`,
		Version: c.version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging and banner")

	defaultHelp := c.rootCmd.HelpFunc()
	c.rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		c.initApp()
		defaultHelp(cmd, args)
	})

	c.rootCmd.AddCommand(c.newTrainCommand())
	c.rootCmd.AddCommand(c.newClassifyCommand())
	c.rootCmd.AddCommand(c.newEvaluateCommand())
	c.rootCmd.AddCommand(c.newSearchCommand())
	c.rootCmd.AddCommand(c.newInspectCommand())
	c.rootCmd.AddCommand(c.newUpCommand())
}

// Run dispatches the command line to the selected subcommand.
func (c *CLI) Run() error {
	return c.rootCmd.Execute()
}

// initApp installs the slog handler on stderr and prints the banner, once.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	stderr := c.rootCmd.ErrOrStderr()
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: level,
	})))
	if !c.silent {
		_, _ = fmt.Fprint(stderr, banner.Banner(c.version))
	}
}
