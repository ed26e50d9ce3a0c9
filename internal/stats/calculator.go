package stats

import (
	"math"
	"sort"
	"sync"

	"github.com/verte-zerg/compute-wer/internal/align"
	"github.com/verte-zerg/compute-wer/internal/script"
)

// Unbounded disables the max-WER filter.
var Unbounded = math.Inf(1)

// TokenStat is the accumulated WER of one token.
type TokenStat struct {
	Token string `json:"token" yaml:"token"`
	WER   `yaml:",inline"`
}

// ClusterWER is the accumulated WER of a named token group.
type ClusterWER struct {
	Name string `json:"name" yaml:"name"`
	WER  WER    `json:"wer" yaml:"wer"`
}

// Result is the outcome of one utterance.
type Result struct {
	Alignment align.Alignment
	WER       WER
	// Filtered reports that the utterance did not pass the max-WER filter and
	// was left out of token and sentence statistics.
	Filtered bool
}

// Calculator accumulates per-token statistics over many utterances. It is safe
// for concurrent use; alignment happens outside the lock.
type Calculator struct {
	maxWER float64

	mu           sync.Mutex
	tokens       map[string]*WER
	clusterOrder []string
	clusters     map[string][]string
	ser          SER
}

// NewCalculator returns a calculator that only counts utterances whose WER is
// strictly below maxWER.
func NewCalculator(maxWER float64) *Calculator {
	return &Calculator{
		maxWER:   maxWER,
		tokens:   map[string]*WER{},
		clusters: map[string][]string{},
	}
}

// MaxWER returns the filter threshold.
func (c *Calculator) MaxWER() float64 {
	return c.maxWER
}

// Calculate aligns ref against hyp and records the result.
func (c *Calculator) Calculate(ref, hyp []string) Result {
	return c.Record(ref, hyp, align.Align(ref, hyp))
}

// Record accounts a precomputed alignment of ref and hyp.
func (c *Calculator) Record(ref, hyp []string, al align.Alignment) Result {
	res := Result{Alignment: al, WER: FromAlignment(al)}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Hypothesis tokens name default clusters before reference tokens.
	for _, tok := range hyp {
		c.entry(tok)
	}
	for _, tok := range ref {
		c.entry(tok)
	}

	rate := res.WER.Rate()
	if rate >= c.maxWER {
		res.Filtered = true
		return res
	}
	if rate == 0 {
		c.ser.Correct++
	} else {
		c.ser.Error++
	}
	for _, op := range al.Ops {
		var tok string
		if op.Op.ConsumesRef() {
			tok = ref[op.Ref]
		} else {
			tok = hyp[op.Hyp]
		}
		c.tokens[tok].Inc(op.Op)
	}
	return res
}

// entry returns the counters of tok, creating them and assigning tok to its
// script cluster on first sight. Callers hold c.mu.
func (c *Calculator) entry(tok string) *WER {
	if w, ok := c.tokens[tok]; ok {
		return w
	}
	w := &WER{}
	c.tokens[tok] = w
	name := script.Classify(tok)
	if _, ok := c.clusters[name]; !ok {
		c.clusterOrder = append(c.clusterOrder, name)
	}
	c.clusters[name] = append(c.clusters[name], tok)
	return w
}

// Overall returns the summed token statistics and the sentence statistics.
func (c *Calculator) Overall() (WER, SER) {
	c.mu.Lock()
	defer c.mu.Unlock()
	wers := make([]WER, 0, len(c.tokens))
	for _, w := range c.tokens {
		wers = append(wers, *w)
	}
	return SumWER(wers...), c.ser
}

// Cluster sums the statistics of the given token set. Repeated and never seen
// tokens are skipped.
func (c *Calculator) Cluster(tokens []string) WER {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clusterLocked(tokens)
}

func (c *Calculator) clusterLocked(tokens []string) WER {
	seen := make(map[string]struct{}, len(tokens))
	wers := make([]WER, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		if w, ok := c.tokens[tok]; ok {
			wers = append(wers, *w)
		}
	}
	return SumWER(wers...)
}

// Clusters returns the script clusters in the order they were first seen.
func (c *Calculator) Clusters() []ClusterWER {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ClusterWER, 0, len(c.clusterOrder))
	for _, name := range c.clusterOrder {
		out = append(out, ClusterWER{Name: name, WER: c.clusterLocked(c.clusters[name])})
	}
	return out
}

// Tokens returns a snapshot of every token's statistics sorted by token.
func (c *Calculator) Tokens() []TokenStat {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TokenStat, 0, len(c.tokens))
	for tok, w := range c.tokens {
		out = append(out, TokenStat{Token: tok, WER: *w})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Token < out[j].Token
	})
	return out
}
