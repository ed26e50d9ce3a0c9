// Package wordlist loads ignore lists, split tables and cluster files.
package wordlist

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// LoadWords reads one word per line from the provided file path. Blank lines
// are skipped; an empty file yields an empty list.
func LoadWords(path string) ([]string, error) {
	var words []string
	err := readLines(path, func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		words = append(words, line)
	})
	if err != nil {
		return nil, err
	}
	return words, nil
}

// LoadSplitTable reads "<token> <part> <part>..." lines. Lines with fewer
// than two fields are ignored and a later line for the same token wins.
func LoadSplitTable(path string) (map[string][]string, error) {
	table := map[string][]string{}
	err := readLines(path, func(line string) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return
		}
		table[fields[0]] = fields[1:]
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

func readLines(path string, fn func(string)) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	return scanLines(file, fn)
}

func scanLines(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	return scanner.Err()
}
