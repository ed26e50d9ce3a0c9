package textnorm

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Unicode normalization forms accepted by Config.Unicode.
const (
	UnicodeNone = "none"
	UnicodeNFC  = "nfc"
	UnicodeNFKC = "nfkc"
)

// Config describes how raw tokens are normalized.
type Config struct {
	CaseSensitive bool
	RemoveTag     bool
	CharMode      bool
	IgnoreWords   []string
	Split         map[string][]string
	Unicode       string
}

// Validate checks the config for unsupported values.
func (c Config) Validate() error {
	switch c.Unicode {
	case "", UnicodeNone, UnicodeNFC, UnicodeNFKC:
		return nil
	default:
		return fmt.Errorf("unicode normalization must be %q, %q or %q, got %q", UnicodeNone, UnicodeNFC, UnicodeNFKC, c.Unicode)
	}
}

// Normalizer applies a Config to token sequences. It is safe for concurrent use.
type Normalizer struct {
	cfg    Config
	form   norm.Form
	useNF  bool
	ignore map[string]struct{}
	split  map[string][]string
}

// NewNormalizer folds the ignore set and split table once so that lookups
// match the tokens produced by Normalize.
func NewNormalizer(cfg Config) *Normalizer {
	n := &Normalizer{
		cfg:    cfg,
		ignore: make(map[string]struct{}, len(cfg.IgnoreWords)),
		split:  make(map[string][]string, len(cfg.Split)),
	}
	switch cfg.Unicode {
	case UnicodeNFC:
		n.form, n.useNF = norm.NFC, true
	case UnicodeNFKC:
		n.form, n.useNF = norm.NFKC, true
	}
	upper := n.caser()
	for _, w := range cfg.IgnoreWords {
		n.ignore[n.fold(upper, w)] = struct{}{}
	}
	for key, words := range cfg.Split {
		folded := make([]string, len(words))
		for i, w := range words {
			folded[i] = n.fold(upper, w)
		}
		n.split[n.fold(upper, key)] = folded
	}
	return n
}

// Line tokenizes and normalizes one transcript.
func (n *Normalizer) Line(text string) []string {
	return n.Normalize(Tokenize(text, n.cfg.CharMode))
}

// Normalize folds case, drops ignored words and tags, and expands compound
// words. It never fails; unknown input passes through or is dropped.
func (n *Normalizer) Normalize(tokens []string) []string {
	upper := n.caser()
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		x := n.fold(upper, tok)
		if _, ok := n.ignore[x]; ok {
			continue
		}
		if n.cfg.RemoveTag {
			x = StripTags(x)
		}
		if x == "" {
			continue
		}
		if words, ok := n.split[x]; ok {
			out = append(out, words...)
			continue
		}
		out = append(out, x)
	}
	return out
}

// Fold applies the configured Unicode form and case folding to a single word,
// the same way Normalize does before any lookup.
func (n *Normalizer) Fold(s string) string {
	return n.fold(n.caser(), s)
}

// caser returns nil in case-sensitive mode. cases.Caser keeps state, so each
// call gets its own.
func (n *Normalizer) caser() *cases.Caser {
	if n.cfg.CaseSensitive {
		return nil
	}
	c := cases.Upper(language.Und)
	return &c
}

func (n *Normalizer) fold(upper *cases.Caser, s string) string {
	if n.useNF {
		s = n.form.String(s)
	}
	if upper != nil {
		s = upper.String(s)
	}
	return s
}

// ParseUnicodeForm lowercases and validates a normalization form name.
func ParseUnicodeForm(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return UnicodeNone, nil
	}
	if err := (Config{Unicode: s}).Validate(); err != nil {
		return "", err
	}
	return s, nil
}
