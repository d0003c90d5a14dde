package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	memstore "github.com/PabloGalante/trackmate-insights/internal/adapters/storage/memory"
	"github.com/PabloGalante/trackmate-insights/internal/app/personalization"
	"github.com/PabloGalante/trackmate-insights/internal/app/stats"
)

var (
	seedScenario string
	seedAdvice   bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo scenario into memory and print what the API would serve",
	Long: `Load one of the demo scenarios (stressed_work, stressed_school, productive)
into an in-memory store and print the stats summary and the advice snapshot
for the demo user. With --advice the configured advice backend is called too.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedScenario, "scenario", "s", "productive", "demo scenario name")
	seedCmd.Flags().BoolVar(&seedAdvice, "advice", false, "also request suggestions from the advice backend")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	now := time.Now()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store := memstore.NewStore()
	if err := memstore.Seed(store, seedScenario, now); err != nil {
		return fmt.Errorf("%w (known: %v)", err, memstore.Scenarios())
	}

	summary, err := stats.NewService(store, store, loc).Summarize(ctx, memstore.DemoUserID, now)
	if err != nil {
		return err
	}
	snap, err := personalization.NewBuilder(store).BuildSnapshot(ctx, memstore.DemoUserID, cfg.Advice.WindowHours)
	if err != nil {
		return err
	}

	out := map[string]any{
		"user":     memstore.DemoUserID,
		"scenario": seedScenario,
		"summary":  summary,
		"snapshot": snap,
	}

	if seedAdvice {
		gateway, err := buildGateway(ctx, cfg)
		if err != nil {
			return err
		}
		suggestions, err := gateway.RequestAdvice(ctx, snap)
		if err != nil {
			return err
		}
		out["suggestions"] = suggestions
	}

	return printJSON(out)
}
