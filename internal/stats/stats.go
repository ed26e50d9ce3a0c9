package stats

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/compute-wer/internal/model"
)

const sparkChars = " .:-=+*#%@"

// RunMetrics returns the recorded WER and SER of a run.
func RunMetrics(run model.RunAggregate) (WER, SER) {
	wer := WER{Equal: run.Equal, Replace: run.Replace, Delete: run.Delete, Insert: run.Insert}
	ser := SER{Correct: run.SERCorrect, Error: run.SERError}
	return wer, ser
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary of recorded runs.
func RenderSummary(w io.Writer, runs []model.RunAggregate) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	var total WER
	var totalSER SER
	best := math.Inf(1)
	for _, r := range runs {
		wer, ser := RunMetrics(r)
		total = total.Add(wer)
		totalSER.Correct += ser.Correct
		totalSER.Error += ser.Error
		if rate := wer.Rate(); rate < best {
			best = rate
		}
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Runs: %d\n", len(runs)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Pooled WER: %s\n", total); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best WER: %.2f %%\n", best); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Pooled SER: %s\n", totalSER); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderRuns prints one table row per run followed by a WER trend line.
func RenderRuns(w io.Writer, runs []model.RunAggregate, window int) error {
	if len(runs) == 0 {
		return nil
	}
	headers := []string{"Run", "When", "Ref", "Utts", "WER", "SER", "N"}
	rows := make([][]string, 0, len(runs))
	rates := make([]float64, 0, len(runs))
	for _, r := range runs {
		wer, ser := RunMetrics(r)
		rates = append(rates, wer.Rate())
		id := r.UUID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, []string{
			id,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			filepath.Base(r.RefPath),
			fmt.Sprintf("%d", r.Utterances),
			fmt.Sprintf("%.2f%%", wer.Rate()),
			fmt.Sprintf("%.2f%%", ser.Rate()),
			fmt.Sprintf("%d", wer.All()),
		})
	}
	if _, err := fmt.Fprintln(w, "Runs"); err != nil {
		return err
	}
	rightAlign := map[int]bool{3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(runs) > 1 {
		if _, err := fmt.Fprintf(w, "WER trend: [%s]\n", Sparkline(MovingAverage(rates, window))); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderTokenTable prints per-token statistics in the given order.
func RenderTokenTable(w io.Writer, title string, tokens []TokenStat) error {
	if len(tokens) == 0 {
		_, err := fmt.Fprintln(w, "No token stats found.")
		return err
	}
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}

	headers := []string{"Token", "Accuracy", "N", "C", "S", "D", "I"}
	rows := make([][]string, 0, len(tokens))
	for _, ts := range tokens {
		rows = append(rows, []string{
			ts.Token,
			fmt.Sprintf("%.2f%%", tokenAccuracy(ts)*100),
			fmt.Sprintf("%d", ts.All()),
			fmt.Sprintf("%d", ts.Equal),
			fmt.Sprintf("%d", ts.Replace),
			fmt.Sprintf("%d", ts.Delete),
			fmt.Sprintf("%d", ts.Insert),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	lines := formatTable(headers, rows, rightAlign)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderTokenTrends prints an accuracy sparkline per token across runs.
func RenderTokenTrends(w io.Writer, runs []model.RunAggregate, perRun map[int64]map[string]model.TokenAggregate, tokens []string, window int) error {
	if len(tokens) == 0 || len(runs) < 2 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Token Trends"); err != nil {
		return err
	}
	headers := []string{"Token", "Accuracy", "Trend"}
	rows := make([][]string, 0, len(tokens))
	for _, tok := range tokens {
		series := make([]float64, len(runs))
		for i, r := range runs {
			series[i] = 100
			if data, ok := perRun[r.RunID]; ok {
				if agg, ok := data[tok]; ok {
					series[i] = tokenAccuracy(TokenStat{Token: tok, WER: FromTokenAggregate(agg)}) * 100
				}
			}
		}
		series = MovingAverage(series, window)
		rows = append(rows, []string{
			tok,
			fmt.Sprintf("%.2f%%", series[len(series)-1]),
			"[" + Sparkline(series) + "]",
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}
