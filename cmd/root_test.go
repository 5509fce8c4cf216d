package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"shopintent/pipeline"
)

// writeSessions writes n buyers and n browsers that differ only in page counts and values.
func writeSessions(t *testing.T, n int) string {
	t.Helper()
	lines := []string{strings.Join(pipeline.Columns(), ",")}
	for i := 0; i < n; i++ {
		lines = append(lines,
			fmt.Sprintf("0,0,0,0,%d,0,0.01,0.02,%d,0,Nov,1,1,1,1,Returning_Visitor,FALSE,TRUE", 40+i, 50+i),
			fmt.Sprintf("0,0,0,0,%d,0,0.01,0.02,0,0,Mar,1,1,1,1,New_Visitor,TRUE,FALSE", 1+i%2),
		)
	}
	path := filepath.Join(t.TempDir(), "shopping.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	// A nil slice would make cobra fall back to os.Args.
	root.SetArgs(append([]string{}, args...))
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestRootRejectsBadArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, usageLine},
		{"too many args", []string{"a.csv", "1", "2"}, usageLine},
		{"k not integer", []string{"a.csv", "three"}, "k setting must be an integer"},
		{"k float", []string{"a.csv", "1.5"}, "k setting must be an integer"},
		{"k zero", []string{"a.csv", "0"}, "k setting must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, context.Background(), tt.args...)
			var usage *UsageError
			if !errors.As(err, &usage) {
				t.Fatalf("expected UsageError, got %v", err)
			}
			if usage.Message != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, usage.Message)
			}
			if ExitCode(err) != 2 {
				t.Fatalf("expected exit code 2, got %d", ExitCode(err))
			}
			if stdout != "" {
				t.Fatalf("nothing may be printed before argument validation, got %q", stdout)
			}
		})
	}
}

func TestRootUnknownFlagIsUsageError(t *testing.T) {
	_, _, err := execute(t, context.Background(), "a.csv", "--bogus")
	if ExitCode(err) != 2 {
		t.Fatalf("expected exit code 2, got %d (%v)", ExitCode(err), err)
	}
}

var reportLines = []*regexp.Regexp{
	regexp.MustCompile(`^Loading data from CSV file\.\.\.$`),
	regexp.MustCompile(`^Data loaded successfully from CSV file! Total rows: 20$`),
	regexp.MustCompile(`^Correct: 8$`),
	regexp.MustCompile(`^Incorrect: 0$`),
	regexp.MustCompile(`^True Positive Rate: \d+\.\d{2}%$`),
	regexp.MustCompile(`^True Negative Rate: \d+\.\d{2}%$`),
}

func checkReport(t *testing.T, stdout string) {
	t.Helper()
	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	if len(lines) != len(reportLines) {
		t.Fatalf("expected %d lines, got %d: %q", len(reportLines), len(lines), stdout)
	}
	for i, re := range reportLines {
		if !re.MatchString(lines[i]) {
			t.Errorf("line %d: %q does not match %s", i+1, lines[i], re)
		}
	}
}

func TestRootEvaluates(t *testing.T) {
	path := writeSessions(t, 10)
	for _, args := range [][]string{
		{path, "--seed", "3"},
		{path, "1", "--seed", "3"},
		{path, "3", "--seed", "3", "--normalize"},
	} {
		stdout, stderr, err := execute(t, context.Background(), args...)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v\n%s", args, err, stderr)
		}
		checkReport(t, stdout)
	}
}

func TestRootUsesConfigFile(t *testing.T) {
	path := writeSessions(t, 10)
	configPath := filepath.Join(t.TempDir(), "shopintent.yaml")
	config := "model:\n  type: decision_tree\n  max_tree_depth: 4\nsplit:\n  seed: 11\n"
	if err := os.WriteFile(configPath, []byte(config), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	stdout, stderr, err := execute(t, context.Background(), path, "--config", configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	checkReport(t, stdout)

	_, _, err = execute(t, context.Background(), path, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || ExitCode(err) != 1 {
		t.Fatalf("an explicit missing config must fail with exit code 1, got %v", err)
	}
}

func TestRootKDefaultsToModelK(t *testing.T) {
	path := writeSessions(t, 10)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "shopintent.yaml")
	if err := os.WriteFile(configPath, []byte("model:\n  k: 3\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	dbPath := filepath.Join(dir, "runs.db")

	for _, args := range [][]string{
		{path, "--seed", "3", "--db", dbPath},
		{path, "--seed", "3", "--db", dbPath, "--config", configPath},
		{path, "2", "--seed", "3", "--db", dbPath, "--config", configPath},
	} {
		if _, stderr, err := execute(t, context.Background(), args...); err != nil {
			t.Fatalf("%v: unexpected error: %v\n%s", args, err, stderr)
		}
	}

	stdout, _, err := execute(t, context.Background(), "history", "--db", dbPath, "--limit", "0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"knn(k=1)", "knn(k=3)", "knn(k=2)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected a %s run in history, got %q", want, stdout)
		}
	}
}

func TestRootDataFileNamedLikeSubcommand(t *testing.T) {
	src := writeSessions(t, 10)
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "train"), data, 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	stdout, stderr, err := execute(t, context.Background(), "./train", "--seed", "3")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	checkReport(t, stdout)
}

func TestRootMissingFile(t *testing.T) {
	stdout, _, err := execute(t, context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	var ioErr *pipeline.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if ExitCode(err) != 1 {
		t.Fatalf("expected exit code 1, got %d", ExitCode(err))
	}
	if stdout != "Loading data from CSV file...\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestRootParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	content := strings.Join(pipeline.Columns(), ",") + "\n" +
		"0,0,0,0,1,0,0.2,0.2,0,0,Jun,1,1,1,1,New_Visitor,FALSE,FALSE\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	_, _, err := execute(t, context.Background(), path)
	var parseErr *pipeline.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Line != 2 || !errors.Is(err, pipeline.ErrUnknownMonth) {
		t.Fatalf("expected unknown month on line 2, got %v", err)
	}
}

func TestRunHistory(t *testing.T) {
	path := writeSessions(t, 10)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	if _, stderr, err := execute(t, context.Background(), path, "--seed", "3", "--db", dbPath); err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	stdout, stderr, err := execute(t, context.Background(), "history", "--db", dbPath)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one run, got %q", stdout)
	}
	if !strings.Contains(lines[1], "knn(k=1)") || !strings.Contains(lines[1], path) {
		t.Fatalf("unexpected history row %q", lines[1])
	}

	if _, _, err := execute(t, context.Background(), "history"); err == nil {
		t.Fatal("history without a database must fail")
	}
}

func TestSweep(t *testing.T) {
	path := writeSessions(t, 10)
	stdout, stderr, err := execute(t, context.Background(), "sweep", path, "1", "3", "--seed", "3")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "Best k: 1 ") {
		t.Fatalf("expected k=1 to win ties, got %q", stdout)
	}

	_, _, err = execute(t, context.Background(), "sweep", path, "one")
	if ExitCode(err) != 2 {
		t.Fatalf("expected exit code 2, got %d", ExitCode(err))
	}
}

func TestTrainSavesTree(t *testing.T) {
	path := writeSessions(t, 10)
	modelPath := filepath.Join(t.TempDir(), "models", "tree.json")

	stdout, stderr, err := execute(t, context.Background(), "train", path, "--seed", "3", "--model-path", modelPath)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	if _, err := os.Stat(modelPath); err != nil {
		t.Fatalf("expected saved model: %v", err)
	}
	if !strings.Contains(stdout, "Model saved to "+modelPath) {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	path := writeSessions(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdout, stderr, err := execute(t, ctx, "watch", path, "--seed", "3")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, stderr)
	}
	checkReport(t, stdout)
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatal("nil error must exit 0")
	}
	if ExitCode(errors.New("boom")) != 1 {
		t.Fatal("plain error must exit 1")
	}
	if ExitCode(fmt.Errorf("wrapped: %w", &UsageError{Message: usageLine})) != 2 {
		t.Fatal("wrapped UsageError must exit 2")
	}
}
