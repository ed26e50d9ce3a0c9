// Package script maps tokens to coarse writing-system categories.
//
// The mapping is a heuristic over Unicode character names, not a full script
// database: each rune is matched against an ordered rule table and the token
// keeps a label only when every labelled rune agrees.
package script

import (
	"strings"

	"golang.org/x/text/unicode/runenames"
)

// Category labels.
const (
	Number   = "Number"
	Mandarin = "Mandarin"
	English  = "English"
	Japanese = "Japanese"
	Other    = "Other"
)

// skip marks runes that are dropped before the labels are compared.
const skip = ""

type rule struct {
	prefixes []string
	label    string
}

// Rules are evaluated in order; the first matching prefix wins.
var rules = []rule{
	{prefixes: []string{"DIGIT"}, label: Number},
	{prefixes: []string{"CJK UNIFIED IDEOGRAPH", "CJK COMPATIBILITY IDEOGRAPH", "<CJK Ideograph"}, label: Mandarin},
	{prefixes: []string{"LATIN CAPITAL LETTER", "LATIN SMALL LETTER"}, label: English},
	{prefixes: []string{"HIRAGANA LETTER"}, label: Japanese},
	{
		// & ' @ ℃ = . - _ # + ;
		prefixes: []string{
			"AMPERSAND",
			"APOSTROPHE",
			"COMMERCIAL AT",
			"DEGREE CELSIUS",
			"EQUALS SIGN",
			"FULL STOP",
			"HYPHEN-MINUS",
			"LOW LINE",
			"NUMBER SIGN",
			"PLUS SIGN",
			"SEMICOLON",
		},
		label: skip,
	},
}

// Label returns the label of a single rune and whether any rule matched.
// Connector punctuation matches with an empty label.
func Label(r rune) (string, bool) {
	name := runenames.Name(r)
	if name == "" {
		return "", false
	}
	for _, rl := range rules {
		for _, prefix := range rl.prefixes {
			if strings.HasPrefix(name, prefix) {
				return rl.label, true
			}
		}
	}
	return "", false
}

// Classify returns the category of a token.
func Classify(token string) string {
	label := ""
	for _, r := range token {
		l, ok := Label(r)
		if !ok {
			return Other
		}
		if l == skip {
			continue
		}
		if label == "" {
			label = l
			continue
		}
		if l != label {
			return Other
		}
	}
	if label == "" {
		return Other
	}
	return label
}
