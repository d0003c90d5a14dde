package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/trackmate-insights/internal/app/stats"
	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

var summaryUser string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print one user's stats summary as JSON",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryUser, "user", "u", "", "owner id")
	_ = summaryCmd.MarkFlagRequired("user")
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	summary, err := stats.NewService(store, store, loc).Summarize(ctx, domain.UserID(summaryUser), time.Now())
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
