package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <data_csv_path> [k]",
		Short: "Re-run the evaluation whenever the data file changes",
		Args:  positionalArgs(1, 2),
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
			return s.watch(cmd.Context(), args[0], k, debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period after a write before re-running")
	return cmd
}

// watch evaluates path once, then again after each burst of writes, until ctx is done.
// The parent directory is watched so editors that replace the file are still seen.
func (s *session) watch(ctx context.Context, path string, k int, debounce time.Duration) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	s.rerun(path, k)
	s.logger.Info("watching for changes", zap.String("path", abs))

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("watch stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.logger.Debug("data file changed", zap.String("op", event.Op.String()))
			fire = time.After(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			s.rerun(path, k)
		}
	}
}

// rerun evaluates once; failures are logged so a half-written file does not end the watch.
func (s *session) rerun(path string, k int) {
	if _, err := s.evaluate(path, k); err != nil {
		s.logger.Error("evaluation failed", zap.Error(err))
	}
}
