package collect

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/happyhackingspace/senti/internal/storage"
	"github.com/spf13/cobra"
)

func (c *CLI) newDatasetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage tweet datasets",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	var description string
	createCmd := &cobra.Command{
		Use:     "create <name>",
		Short:   "Create an empty dataset",
		Args:    cobra.ExactArgs(1),
		Example: `  senti-collect dataset create phones --description "tweets about phones"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			store, _, err := c.openStore(ctx, "")
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ds, err := store.CreateDataset(ctx, args[0], description)
			if err != nil {
				return err
			}
			slog.Info("Dataset created", "name", ds.Name, "id", ds.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&description, "description", "", "Dataset description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List datasets with their tweet counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			store, _, err := c.openStore(ctx, "")
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			datasets, err := store.Datasets(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tTWEETS\tTAGGED\tCREATED\tDESCRIPTION")
			for _, d := range datasets {
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
					d.Name, d.Tweets, d.Tagged, d.CreatedAt.Format("2006-01-02"), d.Description)
			}
			return tw.Flush()
		},
	}

	exportCmd := &cobra.Command{
		Use:     "export <name> <out.csv>",
		Short:   "Write the tagged tweets of a dataset as a labelled corpus",
		Args:    cobra.ExactArgs(2),
		Example: `  senti-collect dataset export phones corpus.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			store, ds, err := c.openStore(ctx, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rows, err := store.LabelledSet(ctx, ds.ID)
			if err != nil {
				return err
			}
			if err := storage.WriteLabelledSet(args[1], rows); err != nil {
				return err
			}
			slog.Info("Dataset exported", "name", ds.Name, "rows", len(rows), "output", args[1])
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a dataset and its tweets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			store, ds, err := c.openStore(ctx, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteDataset(ctx, ds.ID); err != nil {
				return err
			}
			slog.Info("Dataset deleted", "name", ds.Name, "tweets", ds.Tweets)
			return nil
		},
	}

	cmd.AddCommand(createCmd, listCmd, exportCmd, deleteCmd)
	return cmd
}
