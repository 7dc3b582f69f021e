package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyCmd = newHistoryCmd()

func init() {
	rootCmd.AddCommand(historyCmd)
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved Mandelbrot batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStoreFunc(viper.GetString("history_db"))
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.List(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved batches.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "RUN\tLABEL\tSAVED\tTRIALS")
			for _, run := range runs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\n",
					run.ID, run.Label, run.CreatedAt.Format("2006-01-02 15:04:05"), run.TrialCount)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of batches to list")

	return cmd
}
