// Package report renders evaluation results as text, JSON or YAML.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/verte-zerg/compute-wer/internal/align"
	"github.com/verte-zerg/compute-wer/internal/eval"
	"github.com/verte-zerg/compute-wer/internal/stats"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Padding symbols.
const (
	PaddingSpace     = "space"
	PaddingUnderline = "underline"
)

const rule = "==========================================================================="

// Options controls rendering.
type Options struct {
	Verbose         bool
	PaddingSymbol   string
	MaxWordsPerLine int
	Color           bool
	TopErrors       int
}

// Validate checks option values.
func (o Options) Validate() error {
	switch o.PaddingSymbol {
	case "", PaddingSpace, PaddingUnderline:
	default:
		return fmt.Errorf("padding symbol must be %q or %q, got %q", PaddingSpace, PaddingUnderline, o.PaddingSymbol)
	}
	if o.MaxWordsPerLine < 0 {
		return fmt.Errorf("max words per line must be >= 0")
	}
	if o.TopErrors < 0 {
		return fmt.Errorf("top errors must be >= 0")
	}
	return nil
}

// Write renders res in the given format.
func Write(w io.Writer, format string, res *eval.Result, opts Options) error {
	switch format {
	case "", FormatText:
		return WriteText(w, res, opts)
	case FormatJSON:
		return WriteJSON(w, res, opts)
	case FormatYAML:
		return WriteYAML(w, res, opts)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteText renders the classic report: per-utterance alignments followed by
// overall, cluster and sentence statistics.
func WriteText(w io.Writer, res *eval.Result, opts Options) error {
	bw := bufio.NewWriter(w)
	p := newPainter(opts.Color)
	pad := padSymbol(opts.PaddingSymbol)
	if opts.Verbose {
		for _, u := range res.Utterances {
			if res.FileMode {
				fmt.Fprintf(bw, "utt: %s\n", u.ID)
			}
			fmt.Fprintf(bw, "WER: %s\n", u.Result.WER)
			writeRows(bw, u.Result.Alignment, pad, opts.MaxWordsPerLine, p)
		}
	}
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Overall -> %s\n", res.Overall)
	for _, cl := range res.Clusters {
		fmt.Fprintf(bw, "%s -> %s\n", cl.Name, cl.WER)
	}
	if res.FileMode {
		fmt.Fprintf(bw, "SER -> %s\n", res.SER)
	}
	fmt.Fprintln(bw, rule)
	if opts.TopErrors > 0 {
		fmt.Fprintln(bw)
		if err := stats.RenderTokenTable(bw, "Weakest Tokens", weakTokens(res, opts.TopErrors)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteAlignment prints the padded lab/rec rows of one alignment.
func WriteAlignment(w io.Writer, al align.Alignment, opts Options) error {
	bw := bufio.NewWriter(w)
	pad := padSymbol(opts.PaddingSymbol)
	writeRows(bw, al, pad, opts.MaxWordsPerLine, newPainter(opts.Color))
	return bw.Flush()
}

// writeRows prints the lab/rec rows, padding each column to the wider of its
// two cells and wrapping every perLine columns.
func writeRows(w io.Writer, al align.Alignment, pad string, perLine int, p painter) {
	n := len(al.Ops)
	if perLine <= 0 || perLine > n {
		perLine = n
	}
	if n == 0 {
		fmt.Fprint(w, "lab:\nrec:\n\n")
		return
	}
	for start := 0; start < n; start += perLine {
		end := min(start+perLine, n)
		var lab, rec strings.Builder
		lab.WriteString("lab:")
		rec.WriteString("rec:")
		for i := start; i < end; i++ {
			op := al.Ops[i].Op
			ref, hyp := al.Ref[i], al.Hyp[i]
			rw, hw := stats.DisplayWidth(ref), stats.DisplayWidth(hyp)
			width := max(rw, hw)
			lab.WriteByte(' ')
			lab.WriteString(p.ref(op, ref))
			lab.WriteString(strings.Repeat(pad, width-rw))
			rec.WriteByte(' ')
			rec.WriteString(p.hyp(op, hyp))
			rec.WriteString(strings.Repeat(pad, width-hw))
		}
		fmt.Fprintf(w, "%s\n%s\n\n", lab.String(), rec.String())
	}
}

func padSymbol(name string) string {
	if name == PaddingUnderline {
		return "_"
	}
	return " "
}

type painter struct {
	sub *color.Color
	del *color.Color
	ins *color.Color
}

func newPainter(enabled bool) painter {
	p := painter{
		sub: color.New(color.FgYellow, color.Bold),
		del: color.New(color.FgRed),
		ins: color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.sub, p.del, p.ins} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p painter) ref(op align.Op, tok string) string {
	switch op {
	case align.Replace:
		return p.sub.Sprint(tok)
	case align.Delete:
		return p.del.Sprint(tok)
	}
	return tok
}

func (p painter) hyp(op align.Op, tok string) string {
	switch op {
	case align.Replace:
		return p.sub.Sprint(tok)
	case align.Insert:
		return p.ins.Sprint(tok)
	}
	return tok
}

func weakTokens(res *eval.Result, top int) []stats.TokenStat {
	seen := make([]stats.TokenStat, 0, len(res.Tokens))
	for _, ts := range res.Tokens {
		if ts.Errors() > 0 {
			seen = append(seen, ts)
		}
	}
	return stats.WeakTokens(seen, top)
}
