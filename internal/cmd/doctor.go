package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"

	"github.com/sonit33/aarya-sub000/internal/config"
	"github.com/sonit33/aarya-sub000/internal/observability"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Check the environment, the content store and the session directory before
running a batch. The LLM endpoint is not called; only the token is checked.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type doctorCheck struct {
	name string
	run  func() (string, error)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := currentConfig()
	out := cmd.OutOrStdout()

	checks := []doctorCheck{
		{"Go version", func() (string, error) { return runtime.Version(), nil }},
		{"Gofulmen", func() (string, error) {
			v := crucible.GetVersion()
			if v.Gofulmen == "" {
				return "", fmt.Errorf("gofulmen version unavailable")
			}
			return "v" + v.Gofulmen, nil
		}},
		{"Store environment", func() (string, error) {
			if err := cfg.Require(config.NeedStore); err != nil {
				return "", err
			}
			return fmt.Sprintf("%s (%s)", cfg.Store.Name, cfg.Store.Driver), nil
		}},
		{"Store connection", func() (string, error) {
			db, err := openStore(ctx)
			if err != nil {
				return "", err
			}
			defer db.Close() // nolint:errcheck
			return "tables ready", nil
		}},
		{"LLM token", func() (string, error) {
			if err := cfg.Require(config.NeedLLM); err != nil {
				return "", err
			}
			return fmt.Sprintf("set (model %s)", cfg.AILink.Model), nil
		}},
		{"Session directory", func() (string, error) {
			root := tempRoot(cfg)
			// #nosec G301 -- session folders are operator-owned
			if err := os.MkdirAll(root, 0755); err != nil {
				return "", err
			}
			f, err := os.CreateTemp(root, ".doctor-*")
			if err != nil {
				return "", err
			}
			name := f.Name()
			_ = f.Close()
			_ = os.Remove(name)
			return root + " (writable)", nil
		}},
	}

	failed := reportChecks(out, checks)
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	if observability.CLILogger != nil {
		observability.CLILogger.Debug("All checks passed")
	}
	return nil
}

func reportChecks(out io.Writer, checks []doctorCheck) int {
	failed := 0
	for i, check := range checks {
		detail, err := check.run()
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "[%d/%d] %s... FAIL %v\n", i+1, len(checks), check.name, err)
			continue
		}
		_, _ = fmt.Fprintf(out, "[%d/%d] %s... ok %s\n", i+1, len(checks), check.name, detail)
	}
	return failed
}
