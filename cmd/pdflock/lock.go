// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdflock/internal/batch"
	"github.com/pdiddy/pdflock/internal/convert"
	"github.com/pdiddy/pdflock/internal/history"
	"github.com/pdiddy/pdflock/internal/output"
	"github.com/pdiddy/pdflock/pkg/types"
)

var lockCmd = &cobra.Command{
	Use:   "lock [files...]",
	Short: "Convert and password-protect a batch of documents",
	Long: `Lock processes the given files in order: Office documents are converted
to PDF through the preferred available backend, every PDF is encrypted
with AES-256 using the supplied password, and the results are written to
the output directory under locked_* names that never overwrite existing
files.

A single file's failure never aborts the batch; the final summary lists
every file's outcome. Ctrl-C stops the batch before the next file starts.`,
	Args: cobra.ArbitraryArgs,
	RunE: runLock,
}

func init() {
	lockCmd.Flags().StringP("password", "p", "", "password to protect the PDFs with (or PDFLOCK_PASSWORD)")
	lockCmd.Flags().StringP("output-dir", "o", "", "output directory (default: Desktop/Locked PDFs)")
	lockCmd.Flags().String("prefix", "", `output name prefix (default "locked_")`)
	lockCmd.Flags().Duration("timeout", 0, "per-file conversion timeout (default 2m)")
	lockCmd.Flags().String("suite-binary", "", "LibreOffice binary override")
	lockCmd.Flags().Bool("no-office", false, "skip Office automation even when available")
	lockCmd.Flags().Bool("no-history", false, "do not record this run in the history journal")
	lockCmd.Flags().String("report", "", "write a YAML/JSON batch report to this path")
	lockCmd.Flags().Bool("check", false, "report backend availability and exit")

	rootCmd.AddCommand(lockCmd)
}

func runLock(cmd *cobra.Command, args []string) error {
	cfg := lockConfig(cmd)
	router := convert.DefaultRouter(cfg.Convert)

	if check, _ := cmd.Flags().GetBool("check"); check {
		return printCheck(router)
	}

	if len(args) == 0 {
		return fmt.Errorf("no input files: pass at least one document to lock")
	}

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = viper.GetString("password")
	}
	if password == "" {
		return fmt.Errorf("no password: use --password or PDFLOCK_PASSWORD")
	}

	namer, err := output.NewNamer(cfg.Output)
	if err != nil {
		return err
	}

	sup := batch.New(cfg, router, namer)
	sup.SetLog(os.Stdout)

	// Ctrl-C requests a cooperative stop between files.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	events, outcome := sup.Start(ctx, args, password)
	for ev := range events {
		if ev.State == types.StateConverting {
			fmt.Fprintf(os.Stderr, "converting: %s [%d/%d]\n", ev.Name, ev.Index+1, len(args))
		}
	}
	out := <-outcome
	if out.Err != nil {
		return out.Err
	}
	res := out.Result

	if noHist, _ := cmd.Flags().GetBool("no-history"); !noHist && cfg.History.Path != "" {
		if err := recordHistory(cfg.History.Path, res); err != nil {
			fmt.Fprintf(os.Stderr, "warning: history not recorded: %v\n", err)
		}
	}

	if report, _ := cmd.Flags().GetString("report"); report != "" {
		if err := batch.WriteReport(report, res); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", report)
	}

	if res.HasFailures() {
		return fmt.Errorf("%d file(s) failed", res.Failed)
	}
	return nil
}

func recordHistory(path string, res *types.BatchResult) error {
	store, err := history.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Record(context.Background(), res)
	return err
}

func printCheck(router *convert.Router) error {
	names := router.Names()
	if len(names) == 0 {
		fmt.Println("Conversion backends: none available (PDF inputs still work)")
		return nil
	}
	fmt.Printf("Conversion backends: %s\n", strings.Join(names, ", "))
	return nil
}

// lockConfig builds the run configuration with flag > config file > default
// precedence.
func lockConfig(cmd *cobra.Command) types.LockConfig {
	cfg := types.LockConfig{
		Convert: types.ConvertConfig{
			Timeout:     viper.GetDuration("convert.timeout"),
			SuiteBinary: viper.GetString("convert.suite_binary"),
		},
		Output: types.OutputConfig{
			Dir:    viper.GetString("output.dir"),
			Prefix: viper.GetString("output.prefix"),
		},
		Password: types.PasswordPolicy{
			MinLength: viper.GetInt("password_policy.min_length"),
		},
		History: types.HistoryConfig{
			Path:  viper.GetString("history.path"),
			Limit: viper.GetInt("history.limit"),
		},
	}

	if v, _ := cmd.Flags().GetDuration("timeout"); v > 0 {
		cfg.Convert.Timeout = v
	}
	if v, _ := cmd.Flags().GetString("suite-binary"); v != "" {
		cfg.Convert.SuiteBinary = v
	}
	if v, _ := cmd.Flags().GetBool("no-office"); v {
		cfg.Convert.DisableOffice = true
	}
	if v, _ := cmd.Flags().GetString("output-dir"); v != "" {
		cfg.Output.Dir = v
	}
	if v, _ := cmd.Flags().GetString("prefix"); v != "" {
		cfg.Output.Prefix = v
	}
	if cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryPath()
	}
	return cfg.WithDefaults()
}

// defaultHistoryPath places the journal under the user config directory.
// Empty (history disabled) when no home directory can be resolved.
func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pdflock", "history.db")
}
