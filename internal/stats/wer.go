// Package stats contains error-rate accounting and reporting.
package stats

import (
	"fmt"

	"github.com/verte-zerg/compute-wer/internal/align"
	"github.com/verte-zerg/compute-wer/internal/model"
)

// WER counts aligned positions by op. The reference length is derived.
type WER struct {
	Equal   int `json:"equal" yaml:"equal"`
	Replace int `json:"replace" yaml:"replace"`
	Delete  int `json:"delete" yaml:"delete"`
	Insert  int `json:"insert" yaml:"insert"`
}

// All returns the reference length; insertions are not part of it.
func (w WER) All() int {
	return w.Equal + w.Replace + w.Delete
}

// Errors returns the number of edits.
func (w WER) Errors() int {
	return w.Replace + w.Delete + w.Insert
}

// Rate returns the error rate in percent, 0 for an empty reference.
func (w WER) Rate() float64 {
	all := w.All()
	if all == 0 {
		return 0
	}
	return float64(w.Errors()) * 100 / float64(all)
}

// Accuracy returns the share of reference positions recognized correctly, 1 when empty.
func (w WER) Accuracy() float64 {
	all := w.All()
	if all == 0 {
		return 1
	}
	return float64(w.Equal) / float64(all)
}

// Add sums two counters pointwise.
func (w WER) Add(o WER) WER {
	return WER{
		Equal:   w.Equal + o.Equal,
		Replace: w.Replace + o.Replace,
		Delete:  w.Delete + o.Delete,
		Insert:  w.Insert + o.Insert,
	}
}

// Inc increments the counter for op.
func (w *WER) Inc(op align.Op) {
	switch op {
	case align.Equal:
		w.Equal++
	case align.Replace:
		w.Replace++
	case align.Delete:
		w.Delete++
	case align.Insert:
		w.Insert++
	}
}

func (w WER) String() string {
	return fmt.Sprintf("%4.2f %% N=%d C=%d S=%d D=%d I=%d", w.Rate(), w.All(), w.Equal, w.Replace, w.Delete, w.Insert)
}

// SumWER adds counters pointwise.
func SumWER(wers ...WER) WER {
	var total WER
	for _, w := range wers {
		total = total.Add(w)
	}
	return total
}

// FromAlignment tallies an alignment.
func FromAlignment(al align.Alignment) WER {
	var w WER
	for _, op := range al.Ops {
		w.Inc(op.Op)
	}
	return w
}

// FromTokenAggregate converts a stored aggregate.
func FromTokenAggregate(agg model.TokenAggregate) WER {
	return WER{Equal: agg.Equal, Replace: agg.Replace, Delete: agg.Delete, Insert: agg.Insert}
}

// SER counts utterances with and without errors.
type SER struct {
	Correct int `json:"correct" yaml:"correct"`
	Error   int `json:"error" yaml:"error"`
}

// All returns the number of counted utterances.
func (s SER) All() int {
	return s.Correct + s.Error
}

// Rate returns the sentence error rate in percent, 0 when nothing was counted.
func (s SER) Rate() float64 {
	all := s.All()
	if all == 0 {
		return 0
	}
	return float64(s.Error) * 100 / float64(all)
}

func (s SER) String() string {
	return fmt.Sprintf("%4.2f %% N=%d C=%d E=%d", s.Rate(), s.All(), s.Correct, s.Error)
}
