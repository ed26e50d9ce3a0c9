package stats

import (
	"sort"

	"github.com/verte-zerg/compute-wer/internal/model"
)

// WeakTokens returns the lowest-accuracy tokens, at most top of them.
// Insertions count against a token's accuracy. A top of zero or less keeps all.
func WeakTokens(tokens []TokenStat, top int) []TokenStat {
	if len(tokens) == 0 {
		return nil
	}
	candidates := make([]TokenStat, len(tokens))
	copy(candidates, tokens)
	sort.Slice(candidates, func(i, j int) bool {
		ai := tokenAccuracy(candidates[i])
		aj := tokenAccuracy(candidates[j])
		if ai == aj {
			ei, ej := candidates[i].Errors(), candidates[j].Errors()
			if ei == ej {
				return candidates[i].Token < candidates[j].Token
			}
			return ei > ej
		}
		return ai < aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}

// TokenStatsFromAggregates converts stored aggregates.
func TokenStatsFromAggregates(aggs []model.TokenAggregate) []TokenStat {
	out := make([]TokenStat, 0, len(aggs))
	for _, agg := range aggs {
		out = append(out, TokenStat{Token: agg.Token, WER: FromTokenAggregate(agg)})
	}
	return out
}

func tokenAccuracy(t TokenStat) float64 {
	total := t.Occurrences()
	if total == 0 {
		return 1.0
	}
	return float64(t.Equal) / float64(total)
}
