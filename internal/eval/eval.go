// Package eval runs an evaluation: read transcripts, normalize, align and
// accumulate statistics.
package eval

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/compute-wer/internal/align"
	"github.com/verte-zerg/compute-wer/internal/corpus"
	"github.com/verte-zerg/compute-wer/internal/model"
	"github.com/verte-zerg/compute-wer/internal/stats"
	"github.com/verte-zerg/compute-wer/internal/textnorm"
	"github.com/verte-zerg/compute-wer/internal/wordlist"
)

// PreconditionError reports a required input that does not exist.
type PreconditionError struct {
	What string
	Path string
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.What, e.Path, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// Utterance is one aligned pair that passed the max-WER filter.
type Utterance struct {
	ID     string
	Ref    []string
	Hyp    []string
	Result stats.Result
}

// Result is a finished evaluation.
type Result struct {
	// FileMode is set when REF and HYP named transcript files.
	FileMode   bool
	CharMode   bool
	RefPath    string
	HypPath    string
	MaxWER     float64
	Utterances []Utterance
	// Filtered counts utterances left out by the max-WER filter.
	Filtered int
	// Unmatched counts reference utterances without a hypothesis.
	Unmatched int
	Overall   stats.WER
	SER       stats.SER
	// Clusters lists script clusters first, then clusters from the cluster file.
	Clusters []stats.ClusterWER
	Tokens   []stats.TokenStat
}

// Evaluate compares ref against hyp. When ref names an existing file both
// arguments are transcript files; otherwise they are literal transcripts.
func Evaluate(ctx context.Context, cfg model.Config, ref, hyp string) (*Result, error) {
	normalizer, clusters, err := prepare(cfg)
	if err != nil {
		return nil, err
	}

	res := &Result{CharMode: cfg.Char}
	var pairs []pair
	if _, err := os.Stat(ref); err == nil {
		res.FileMode = true
		res.RefPath, res.HypPath = ref, hyp
		pairs, res.Unmatched, err = readPairs(ref, hyp)
		if err != nil {
			return nil, err
		}
	} else {
		pairs = []pair{{ref: ref, hyp: hyp}}
	}

	aligned, err := alignAll(ctx, normalizer, pairs, cfg.Jobs)
	if err != nil {
		return nil, err
	}

	calc := stats.NewCalculator(cfg.MaxWER)
	res.MaxWER = calc.MaxWER()
	for i, a := range aligned {
		r := calc.Record(a.ref, a.hyp, a.alignment)
		if r.Filtered {
			res.Filtered++
			slog.Debug("utterance filtered", "utt", pairs[i].id, "wer", r.WER.Rate())
			// A literal pair is always shown.
			if res.FileMode {
				continue
			}
		}
		res.Utterances = append(res.Utterances, Utterance{ID: pairs[i].id, Ref: a.ref, Hyp: a.hyp, Result: r})
	}
	if cfg.Sort {
		sort.SliceStable(res.Utterances, func(i, j int) bool {
			return res.Utterances[i].Result.WER.Rate() < res.Utterances[j].Result.WER.Rate()
		})
	}

	res.Overall, res.SER = calc.Overall()
	res.Clusters = calc.Clusters()
	for _, cl := range clusters {
		words := make([]string, len(cl.Words))
		for i, w := range cl.Words {
			words[i] = normalizer.Fold(w)
		}
		res.Clusters = append(res.Clusters, stats.ClusterWER{Name: cl.Name, WER: calc.Cluster(words)})
	}
	res.Tokens = calc.Tokens()
	return res, nil
}

// prepare builds the normalizer and loads the optional word files.
func prepare(cfg model.Config) (*textnorm.Normalizer, []wordlist.Cluster, error) {
	ncfg := textnorm.Config{
		CaseSensitive: cfg.CaseSensitive,
		RemoveTag:     cfg.RemoveTag,
		CharMode:      cfg.Char,
		Unicode:       cfg.Unicode,
	}
	if err := ncfg.Validate(); err != nil {
		return nil, nil, err
	}
	if cfg.IgnoreFile != "" {
		words, err := wordlist.LoadWords(cfg.IgnoreFile)
		if err != nil {
			return nil, nil, precondition("ignore file", cfg.IgnoreFile, err)
		}
		ncfg.IgnoreWords = words
	}
	if cfg.SplitFile != "" {
		table, err := wordlist.LoadSplitTable(cfg.SplitFile)
		if err != nil {
			return nil, nil, precondition("split file", cfg.SplitFile, err)
		}
		ncfg.Split = table
	}
	var clusters []wordlist.Cluster
	if cfg.ClusterFile != "" {
		var err error
		clusters, err = wordlist.LoadClusters(cfg.ClusterFile)
		if err != nil {
			return nil, nil, precondition("cluster file", cfg.ClusterFile, err)
		}
	}
	return textnorm.NewNormalizer(ncfg), clusters, nil
}

func precondition(what, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &PreconditionError{What: what, Path: path, Err: fs.ErrNotExist}
	}
	return fmt.Errorf("load %s %s: %w", what, path, err)
}

type pair struct {
	id  string
	ref string
	hyp string
}

// readPairs reads both files before any alignment so that conflicts fail
// early, and joins them in reference order.
func readPairs(refPath, hypPath string) ([]pair, int, error) {
	if _, err := os.Stat(hypPath); err != nil {
		return nil, 0, precondition("hypothesis file", hypPath, err)
	}
	hyps, err := corpus.ReadFile(hypPath, corpus.Hypothesis)
	if err != nil {
		return nil, 0, err
	}
	refs, err := corpus.ReadFile(refPath, corpus.Reference)
	if err != nil {
		return nil, 0, err
	}
	pairs := make([]pair, 0, refs.Len())
	unmatched := 0
	for _, u := range refs.Utterances {
		text, ok := hyps.Lookup(u.ID)
		if !ok {
			unmatched++
			slog.Debug("no hypothesis for utterance", "utt", u.ID)
			continue
		}
		pairs = append(pairs, pair{id: u.ID, ref: u.Text, hyp: text})
	}
	return pairs, unmatched, nil
}

type alignedPair struct {
	ref       []string
	hyp       []string
	alignment align.Alignment
}

// alignAll normalizes and aligns pairs on up to jobs goroutines. Results keep
// the input order.
func alignAll(ctx context.Context, n *textnorm.Normalizer, pairs []pair, jobs int) ([]alignedPair, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	out := make([]alignedPair, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range pairs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ref := n.Line(pairs[i].ref)
			hyp := n.Line(pairs[i].hyp)
			out[i] = alignedPair{ref: ref, hyp: hyp, alignment: align.Align(ref, hyp)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
