package stats

import (
	"context"

	"github.com/verte-zerg/compute-wer/internal/model"
	"github.com/verte-zerg/compute-wer/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Runs         []model.RunAggregate
	WindowRunIDs []int64
	TokensAll    []TokenStat
	TokensWindow []TokenStat
	// Trends holds per-run stats for the weakest window tokens.
	Trends      map[int64]map[string]model.TokenAggregate
	TrendTokens []string
}

// BuildReport loads and prepares data for history rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.HistoryConfig) (Report, error) {
	runs, err := st.ListRuns(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(runs) > cfg.Last {
		runs = runs[len(runs)-cfg.Last:]
	}

	allIDs := runIDs(runs)
	windowIDs := lastRunIDs(runs, cfg.Window)
	aggsAll, err := st.ListTokenAggregatesForRuns(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	aggsWindow, err := st.ListTokenAggregatesForRuns(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	tokensWindow := TokenStatsFromAggregates(aggsWindow)
	var trendTokens []string
	for _, ts := range WeakTokens(tokensWindow, cfg.Top) {
		if ts.Errors() > 0 {
			trendTokens = append(trendTokens, ts.Token)
		}
	}
	trends, err := st.ListTokenStatsForRuns(ctx, allIDs, trendTokens)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Runs:         runs,
		WindowRunIDs: windowIDs,
		TokensAll:    TokenStatsFromAggregates(aggsAll),
		TokensWindow: tokensWindow,
		Trends:       trends,
		TrendTokens:  trendTokens,
	}, nil
}

func runIDs(runs []model.RunAggregate) []int64 {
	ids := make([]int64, len(runs))
	for i, r := range runs {
		ids[i] = r.RunID
	}
	return ids
}

func lastRunIDs(runs []model.RunAggregate, window int) []int64 {
	if window <= 0 || len(runs) <= window {
		return runIDs(runs)
	}
	return runIDs(runs[len(runs)-window:])
}
