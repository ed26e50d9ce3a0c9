package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/compute-wer/internal/eval"
	"github.com/verte-zerg/compute-wer/internal/stats"
)

// Counts is a WER with its derived values spelled out.
type Counts struct {
	Rate float64 `json:"rate" yaml:"rate"`
	N    int     `json:"n" yaml:"n"`
	C    int     `json:"c" yaml:"c"`
	S    int     `json:"s" yaml:"s"`
	D    int     `json:"d" yaml:"d"`
	I    int     `json:"i" yaml:"i"`
}

// UtteranceDoc is one aligned utterance.
type UtteranceDoc struct {
	ID     string   `json:"id,omitempty" yaml:"id,omitempty"`
	Counts `yaml:",inline"`
	Ref    []string `json:"ref" yaml:"ref"`
	Hyp    []string `json:"hyp" yaml:"hyp"`
	Ops    []string `json:"ops" yaml:"ops"`
}

// ClusterDoc is a named group of tokens.
type ClusterDoc struct {
	Name   string `json:"name" yaml:"name"`
	Counts `yaml:",inline"`
}

// TokenDoc is the statistics of one token.
type TokenDoc struct {
	Token  string `json:"token" yaml:"token"`
	Counts `yaml:",inline"`
}

// SERDoc is the sentence error rate.
type SERDoc struct {
	Rate    float64 `json:"rate" yaml:"rate"`
	N       int     `json:"n" yaml:"n"`
	Correct int     `json:"c" yaml:"c"`
	Error   int     `json:"e" yaml:"e"`
}

// Document is the structured form of an evaluation.
type Document struct {
	Mode       string         `json:"mode" yaml:"mode"`
	Unit       string         `json:"unit" yaml:"unit"`
	Utterances []UtteranceDoc `json:"utterances,omitempty" yaml:"utterances,omitempty"`
	Filtered   int            `json:"filtered" yaml:"filtered"`
	Unmatched  int            `json:"unmatched" yaml:"unmatched"`
	Overall    Counts         `json:"overall" yaml:"overall"`
	Clusters   []ClusterDoc   `json:"clusters" yaml:"clusters"`
	SER        *SERDoc        `json:"ser,omitempty" yaml:"ser,omitempty"`
	WeakTokens []TokenDoc     `json:"weak_tokens,omitempty" yaml:"weak_tokens,omitempty"`
}

func countsOf(w stats.WER) Counts {
	return Counts{Rate: w.Rate(), N: w.All(), C: w.Equal, S: w.Replace, D: w.Delete, I: w.Insert}
}

// NewDocument builds the structured form of res.
func NewDocument(res *eval.Result, opts Options) Document {
	doc := Document{
		Mode:      "literal",
		Unit:      "word",
		Filtered:  res.Filtered,
		Unmatched: res.Unmatched,
		Overall:   countsOf(res.Overall),
		Clusters:  make([]ClusterDoc, 0, len(res.Clusters)),
	}
	if res.FileMode {
		doc.Mode = "file"
		ser := res.SER
		doc.SER = &SERDoc{Rate: ser.Rate(), N: ser.All(), Correct: ser.Correct, Error: ser.Error}
	}
	if res.CharMode {
		doc.Unit = "char"
	}
	if opts.Verbose {
		for _, u := range res.Utterances {
			al := u.Result.Alignment
			ops := make([]string, len(al.Ops))
			for i, op := range al.Ops {
				ops[i] = op.Op.String()
			}
			doc.Utterances = append(doc.Utterances, UtteranceDoc{
				ID:     u.ID,
				Counts: countsOf(u.Result.WER),
				Ref:    al.Ref,
				Hyp:    al.Hyp,
				Ops:    ops,
			})
		}
	}
	for _, cl := range res.Clusters {
		doc.Clusters = append(doc.Clusters, ClusterDoc{Name: cl.Name, Counts: countsOf(cl.WER)})
	}
	if opts.TopErrors > 0 {
		for _, ts := range weakTokens(res, opts.TopErrors) {
			doc.WeakTokens = append(doc.WeakTokens, TokenDoc{Token: ts.Token, Counts: countsOf(ts.WER)})
		}
	}
	return doc
}

// WriteJSON renders res as indented JSON.
func WriteJSON(w io.Writer, res *eval.Result, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(res, opts))
}

// WriteYAML renders res as YAML.
func WriteYAML(w io.Writer, res *eval.Result, opts Options) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(res, opts)); err != nil {
		return err
	}
	return enc.Close()
}
