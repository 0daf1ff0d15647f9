// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdflock/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recent batch runs from the history journal",
	Long: `History lists recent batch runs recorded by lock. With a run ID it
shows that run's per-file results instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 0, "number of runs to list (default 10)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("history.path")
	if path == "" {
		path = defaultHistoryPath()
	}
	if path == "" {
		return fmt.Errorf("no history database configured")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Println("No history recorded yet.")
		return nil
	}

	store, err := history.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run ID %q", args[0])
		}
		return printRunFiles(store, id)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = viper.GetInt("history.limit")
	}

	runs, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No history recorded yet.")
		return nil
	}

	fmt.Printf("%-6s  %-20s  %-9s  %s\n", "Run", "Started", "Duration", "Outcome")
	for _, r := range runs {
		outcome := r.Summary()
		if r.Cancelled {
			outcome += " (cancelled)"
		}
		fmt.Printf("%-6d  %-20s  %-9s  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			outcome)
	}
	return nil
}

func printRunFiles(store *history.Store, id int64) error {
	files, err := store.Files(context.Background(), id)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no run with ID %d", id)
	}

	for _, fr := range files {
		switch {
		case fr.Output != "":
			fmt.Printf("%-8s  %s -> %s\n", fr.Status, filepath.Base(fr.Path), fr.Output)
		case fr.Reason != "":
			fmt.Printf("%-8s  %s (%s)\n", fr.Status, filepath.Base(fr.Path), fr.Reason)
		default:
			fmt.Printf("%-8s  %s\n", fr.Status, filepath.Base(fr.Path))
		}
	}
	return nil
}
