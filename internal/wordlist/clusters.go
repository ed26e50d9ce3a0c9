package wordlist

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Cluster is a named group of tokens whose statistics are reported together.
type Cluster struct {
	Name  string
	Words []string
}

// LoadClusters parses the cluster file at path.
func LoadClusters(path string) ([]Cluster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only cluster file.
			_ = cerr
		}
	}()
	return ParseClusters(file)
}

// ParseClusters reads whitespace-separated tokens where <Name> opens a
// cluster and </Name> closes it. Clusters are returned in closing order.
//
// Tags that do not fit the current state become ordinary members: a close
// tag for another name, or an open tag while a cluster is already open.
// Tokens outside any cluster and a cluster left open at the end are dropped.
func ParseClusters(r io.Reader) ([]Cluster, error) {
	var (
		out     []Cluster
		current *Cluster
	)
	err := scanLines(r, func(line string) {
		for _, tok := range strings.Fields(line) {
			if current == nil {
				name, ok := openTag(tok)
				if !ok {
					slog.Debug("cluster file token outside cluster", "token", tok)
					continue
				}
				current = &Cluster{Name: name}
				continue
			}
			if name, ok := closeTag(tok); ok && name == current.Name {
				out = append(out, *current)
				current = nil
				continue
			}
			if isTag(tok) {
				slog.Debug("cluster file tag treated as member", "cluster", current.Name, "token", tok)
			}
			current.Words = append(current.Words, tok)
		}
	})
	if err != nil {
		return nil, err
	}
	if current != nil {
		slog.Debug("cluster file ends inside cluster", "cluster", current.Name)
	}
	return out, nil
}

func isTag(tok string) bool {
	return len(tok) >= 2 && tok[0] == '<' && tok[len(tok)-1] == '>'
}

func openTag(tok string) (string, bool) {
	if !isTag(tok) || strings.HasPrefix(tok, "</") {
		return "", false
	}
	return tok[1 : len(tok)-1], true
}

func closeTag(tok string) (string, bool) {
	if !isTag(tok) || !strings.HasPrefix(tok, "</") || len(tok) < 3 {
		return "", false
	}
	return tok[2 : len(tok)-1], true
}
