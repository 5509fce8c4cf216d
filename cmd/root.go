package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
)

const usageLine = "Usage: shopintent data [k=1]"

// UsageError reports bad command-line arguments. It maps to exit code 2.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

// ExitCode maps an Execute error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return 2
	}
	return 1
}

type rootOptions struct {
	configPath string
	model      string
	seed       int64
	testRatio  float64
	normalize  bool
	dbPath     string
}

// NewRootCommand builds the command tree. Each call returns independent state.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "shopintent <data_csv_path> [k]",
		Short: "Predict purchase intent of shopping sessions with k-nearest neighbors",
		Long: `shopintent loads browsing sessions from a CSV file, trains a classifier on a
random training partition, predicts the held-out partition and reports
sensitivity (true positive rate) and specificity (true negative rate).

k defaults to model.k (1 unless set in the config file or SHOPINTENT_K).
A data file named like a subcommand (sweep, watch, history, train, help)
must be given with a directory, e.g. ./train.`,
		Args:          positionalArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := optionalK(args, 1)
			if err != nil {
				return err
			}
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			_, err = s.evaluate(args[0], k)
			return err
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Message: fmt.Sprintf("%v\n%s", err, usageLine)}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config.yaml", "YAML config file")
	flags.StringVar(&opts.model, "model", "", "classifier: knn or decision_tree")
	flags.Int64Var(&opts.seed, "seed", 0, "split seed (0 picks one from the clock)")
	flags.Float64Var(&opts.testRatio, "test-ratio", 0, "share of rows held out for testing")
	flags.BoolVar(&opts.normalize, "normalize", false, "min-max scale features before fitting")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite file for run history")

	root.AddCommand(
		newSweepCommand(opts),
		newWatchCommand(opts),
		newHistoryCommand(opts),
		newTrainCommand(opts),
	)
	return root
}

// Execute runs the root command with a signal-cancelled context and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		var usage *UsageError
		if errors.As(err, &usage) {
			fmt.Fprintln(os.Stderr, usage.Message)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return ExitCode(err)
}

// positionalArgs accepts between least and most arguments (most < 0 means no limit).
// Every argument after the data path must be a valid k.
func positionalArgs(least, most int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < least || (most >= 0 && len(args) > most) {
			return &UsageError{Message: usageLine}
		}
		for _, arg := range args[1:] {
			if _, err := parseK(arg); err != nil {
				return err
			}
		}
		return nil
	}
}

func parseK(value string) (int, error) {
	k, err := strconv.Atoi(value)
	if err != nil {
		return 0, &UsageError{Message: "k setting must be an integer"}
	}
	if k < 1 {
		return 0, &UsageError{Message: "k setting must be at least 1"}
	}
	return k, nil
}

// optionalK returns the k at args[idx], or 0 when absent.
func optionalK(args []string, idx int) (int, error) {
	if len(args) <= idx {
		return 0, nil
	}
	return parseK(args[idx])
}
