// Package corpus reads "<utt_id> <text>" transcript files.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"
)

// Kinds of transcript files, used in errors and log records.
const (
	Reference  = "reference"
	Hypothesis = "hypothesis"
)

// Utterance is one transcript line.
type Utterance struct {
	ID   string
	Text string
}

// ConflictError reports an utterance id that appears twice in one file with
// different text.
type ConflictError struct {
	Kind   string
	ID     string
	First  string
	Second string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting %ss for utterance %q: %q vs %q", e.Kind, e.ID, e.First, e.Second)
}

// Corpus holds utterances in first-seen order with lookup by id.
type Corpus struct {
	Kind       string
	Utterances []Utterance
	index      map[string]int
}

// Len returns the number of distinct utterances.
func (c *Corpus) Len() int {
	return len(c.Utterances)
}

// Lookup returns the text of id.
func (c *Corpus) Lookup(id string) (string, bool) {
	i, ok := c.index[id]
	if !ok {
		return "", false
	}
	return c.Utterances[i].Text, true
}

// ReadFile reads a transcript file.
func ReadFile(path, kind string) (*Corpus, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only transcript.
			_ = cerr
		}
	}()
	c, err := Read(file, kind)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", kind, path, err)
	}
	return c, nil
}

// Read parses transcript lines. Blank lines are skipped and a line holding
// only an id has empty text. Repeating an id with identical text logs a
// warning; repeating it with other text fails with *ConflictError.
func Read(r io.Reader, kind string) (*Corpus, error) {
	c := &Corpus{Kind: kind, index: map[string]int{}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		id, text, ok := SplitLine(scanner.Text())
		if !ok {
			continue
		}
		if i, seen := c.index[id]; seen {
			prev := c.Utterances[i].Text
			if prev != text {
				return nil, &ConflictError{Kind: kind, ID: id, First: prev, Second: text}
			}
			slog.Warn("skip duplicate utterance", "kind", kind, "utt", id)
			continue
		}
		c.index[id] = len(c.Utterances)
		c.Utterances = append(c.Utterances, Utterance{ID: id, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// SplitLine splits a trimmed line at the first whitespace run into id and text.
func SplitLine(line string) (id, text string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, "", true
	}
	return line[:i], strings.TrimLeftFunc(line[i:], unicode.IsSpace), true
}
