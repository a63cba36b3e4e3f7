package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print companies discovered on the directory listing page",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("list"); err != nil {
			return err
		}

		entries, err := newDirectoryClient().List(cmd.Context(), listLimit)
		if err != nil {
			return eris.Wrap(err, "list directory")
		}

		zap.L().Info("directory listed", zap.Int("companies", len(entries)))

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPROFILE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\n", e.Name, e.ProfileURL)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 25, "maximum companies to list")
	rootCmd.AddCommand(listCmd)
}
