package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"shopintent/db"
)

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored evaluation runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if !s.persist {
				return errors.New("run history is disabled: set database.path or --db")
			}

			runs, err := db.LoadEvaluations(limit)
			if err != nil {
				return fmt.Errorf("load run history: %w", err)
			}
			w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "id\tcreated\tdata\tclassifier\tseed\tcorrect\tincorrect\tTPR\tTNR")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%.2f%%\t%.2f%%\n",
					run.ID, run.CreatedAt.Local().Format(time.DateTime), run.DataPath, run.Classifier,
					run.Seed, run.Correct, run.Incorrect, 100*run.Sensitivity, 100*run.Specificity)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show (0 shows all)")
	return cmd
}
