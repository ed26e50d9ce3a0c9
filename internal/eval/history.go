package eval

import (
	"time"

	"github.com/verte-zerg/compute-wer/internal/model"
)

// History converts the result into rows for the run history store.
func (r *Result) History(now time.Time) (model.RunStats, []model.TokenStats, []model.ClusterStats) {
	run := model.RunStats{
		CreatedAt:  now,
		RefPath:    r.RefPath,
		HypPath:    r.HypPath,
		CharMode:   r.CharMode,
		MaxWER:     r.MaxWER,
		Utterances: len(r.Utterances),
		Equal:      r.Overall.Equal,
		Replace:    r.Overall.Replace,
		Delete:     r.Overall.Delete,
		Insert:     r.Overall.Insert,
		SERCorrect: r.SER.Correct,
		SERError:   r.SER.Error,
	}
	tokens := make([]model.TokenStats, 0, len(r.Tokens))
	for _, ts := range r.Tokens {
		if ts.Occurrences() == 0 {
			continue
		}
		tokens = append(tokens, model.TokenStats{
			Token:   ts.Token,
			Equal:   ts.Equal,
			Replace: ts.Replace,
			Delete:  ts.Delete,
			Insert:  ts.Insert,
		})
	}
	clusters := make([]model.ClusterStats, 0, len(r.Clusters))
	for _, cl := range r.Clusters {
		clusters = append(clusters, model.ClusterStats{
			Name:    cl.Name,
			Equal:   cl.WER.Equal,
			Replace: cl.WER.Replace,
			Delete:  cl.WER.Delete,
			Insert:  cl.WER.Insert,
		})
	}
	return run, tokens, clusters
}
