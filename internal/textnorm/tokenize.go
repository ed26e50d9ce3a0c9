// Package textnorm turns transcript lines into comparable token sequences.
package textnorm

import (
	"strings"
	"unicode"
)

// Punctuation skipped in character mode.
const punctSet = "!,?、。！，；？：「」︰『』《》"

var assigned = []*unicode.RangeTable{
	unicode.L, unicode.M, unicode.N, unicode.P, unicode.S, unicode.Z,
	unicode.Cc, unicode.Cf, unicode.Co, unicode.Cs,
}

// Tokenize splits text into raw tokens, on whitespace or per character.
func Tokenize(text string, charMode bool) []string {
	if charMode {
		return Characterize(text)
	}
	return strings.Fields(text)
}

// Characterize splits text so that letters without case (CJK ideographs and
// similar) become one token each while ASCII runs such as Latin words, numbers
// and <tag> markers stay whole.
func Characterize(text string) []string {
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); {
		r := runes[i]
		if strings.ContainsRune(punctSet, r) || isSpace(r) || unicode.Is(unicode.Zs, r) || !unicode.In(r, assigned...) {
			i++
			continue
		}
		if unicode.Is(unicode.Lo, r) {
			out = append(out, string(r))
			i++
			continue
		}
		stop := ' '
		if r == '<' {
			stop = '>'
		}
		j := i + 1
		for j < len(runes) {
			c := runes[j]
			if c >= 128 || isSpace(c) || c == stop {
				break
			}
			j++
		}
		if j < len(runes) && runes[j] == '>' {
			j++
		}
		out = append(out, string(runes[i:j]))
		i = j
	}
	return out
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// StripTags removes every <...> span. An unterminated '<' drops the rest.
func StripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for {
		start := strings.IndexByte(s, '<')
		if start < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:start])
		end := strings.IndexByte(s[start:], '>')
		if end < 0 {
			break
		}
		s = s[start+end+1:]
	}
	return b.String()
}
