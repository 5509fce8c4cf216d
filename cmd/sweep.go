package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shopintent/tuning"
)

func newSweepCommand(opts *rootOptions) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "sweep <data_csv_path> [k...]",
		Short: "Grid search k on one shared split and rank the results",
		Long: `sweep evaluates each candidate k on the same train/test split and ranks
them by the metric in sweep.metric. Candidates come from the arguments, or
from sweep.ks / sweep.min_k..max_k in the config file.`,
		Args: positionalArgs(1, -1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ks := s.cfg.SweepKs()
			if len(args) > 1 {
				ks = nil
				for _, arg := range args[1:] {
					k, _ := parseK(arg)
					ks = append(ks, k)
				}
			}

			dataset, err := s.load(args[0])
			if err != nil {
				return err
			}
			seed := s.seed()
			search := tuning.NewParameterSearch(tuning.SearchConfig{
				Ks:        ks,
				Metric:    s.cfg.Sweep.Metric,
				TestRatio: s.cfg.Split.TestRatio,
				Seed:      seed,
				Model:     s.classifierOptions(0),
			}, s.logger)

			best, err := search.Run(cmd.Context(), dataset.Vectors(), dataset.Labels)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}

			w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "k\t%s\tcorrect\tincorrect\tTPR\tTNR\n", s.cfg.Sweep.Metric)
			for _, it := range search.Top(top) {
				c := it.Report.Counts
				fmt.Fprintf(w, "%d\t%.4f\t%d\t%d\t%.2f%%\t%.2f%%\n",
					it.K, it.Metric, c.Correct(), c.Incorrect(), 100*c.Sensitivity(), 100*c.Specificity())
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Best k: %d (%s %.4f)\n", best.K, s.cfg.Sweep.Metric, best.Metric)

			s.record(args[0], best.K, seed, dataset.Len(), best.Report)
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "show only the n best results (0 shows all)")
	return cmd
}
