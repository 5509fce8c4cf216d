package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shopintent/ml"
)

func newTrainCommand(opts *rootOptions) *cobra.Command {
	var (
		modelPath string
		maxDepth  int
	)
	cmd := &cobra.Command{
		Use:   "train <data_csv_path>",
		Short: "Fit a decision tree on the training partition and save it as JSON",
		Long: `train fits a decision tree (k-NN keeps no model beyond its training rows),
reports its scores on the held-out partition and writes the tree to --model-path.
Features are not scaled so the saved tree applies to raw rows.`,
		Args: positionalArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if !cmd.Flags().Changed("max-depth") {
				maxDepth = s.cfg.Model.MaxTreeDepth
			}
			dataset, err := s.load(args[0])
			if err != nil {
				return err
			}
			seed := s.seed()
			split, err := ml.TrainTestSplit(dataset.Vectors(), dataset.Labels, s.cfg.Split.TestRatio, seed)
			if err != nil {
				return fmt.Errorf("split dataset: %w", err)
			}

			tree := ml.NewDecisionTree(maxDepth)
			model, err := tree.Fit(split.TrainX, split.TrainY)
			if err != nil {
				return fmt.Errorf("train model: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(modelPath), 0o755); err != nil {
				return fmt.Errorf("create model dir: %w", err)
			}
			if err := model.(*ml.TreeModel).Save(modelPath); err != nil {
				return fmt.Errorf("save model: %w", err)
			}

			// Score the reloaded tree so the file on disk is what gets reported.
			saved, err := ml.LoadModel(ml.ModelDecisionTree, modelPath)
			if err != nil {
				return fmt.Errorf("reload model: %w", err)
			}
			predictions, err := saved.Predict(split.TestX)
			if err != nil {
				return err
			}
			counts, err := ml.Confusion(split.TestY, predictions)
			if err != nil {
				return err
			}
			sensitivity, specificity, err := ml.Evaluate(split.TestY, predictions)
			if err != nil {
				return err
			}

			fmt.Fprintf(s.out, "Correct: %d\n", counts.Correct())
			fmt.Fprintf(s.out, "Incorrect: %d\n", counts.Incorrect())
			fmt.Fprintf(s.out, "True Positive Rate: %.2f%%\n", 100*sensitivity)
			fmt.Fprintf(s.out, "True Negative Rate: %.2f%%\n", 100*specificity)
			fmt.Fprintf(s.out, "Model saved to %s\n", modelPath)
			s.logger.Info("model saved",
				zap.String("path", modelPath),
				zap.Int("max_depth", maxDepth),
				zap.Int64("seed", seed),
				zap.Float64("accuracy", counts.Accuracy()))
			return nil
		},
	}
	cmd.Flags().StringVar(&modelPath, "model-path", "./models/tree.json", "model output path")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 10, "max tree depth (defaults to model.max_tree_depth)")
	return cmd
}
