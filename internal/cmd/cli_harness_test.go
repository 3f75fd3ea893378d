package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runCLI executes the root command with the given stdin and arguments and
// returns what it printed. A --config pointing at a missing file is added
// unless args carry one, so the user's real config is never read.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	restore := snapshotCLIState()
	defer restore()

	prevEnvGet := envGet
	envGet = func(key string) string { return "" }
	defer func() { envGet = prevEnvGet }()

	return execCLI(t, stdin, args...)
}

func execCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	in := strings.NewReader(stdin)

	rootCmd.SetOut(out)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(in)

	hasConfig := false
	for _, arg := range args {
		if arg == "--config" || strings.HasPrefix(arg, "--config=") {
			hasConfig = true
		}
	}
	if !hasConfig {
		args = append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...)
	}
	rootCmd.SetArgs(args)

	err := Execute(withIO(context.Background(), in, out, errBuf))
	return out.String(), errBuf.String(), err
}

func writeRows(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func snapshotCLIState() func() {
	prevOutputType := outputType
	prevConfig := loadedConfig

	prevOut := rootCmd.OutOrStdout()
	prevErr := rootCmd.ErrOrStderr()
	prevIn := rootCmd.InOrStdin()
	prevCtx := rootCmd.Context()

	return func() {
		outputType = prevOutputType
		loadedConfig = prevConfig

		rootCmd.SetOut(prevOut)
		rootCmd.SetErr(prevErr)
		rootCmd.SetIn(prevIn)
		rootCmd.SetContext(prevCtx)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag of cmd and its subcommands to its default
// value and clears the Changed markers left by the previous run.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		sub.SetContext(nil)
		resetFlags(sub)
	}
}
