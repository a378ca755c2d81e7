// Package parser reads phrase-list files: one phrase per line, with
// markdown bullets tolerated so exported note lists can be ingested
// as-is.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// ParseFile reads the file at path and extracts all phrases.
func ParseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse extracts phrases from r. Blank lines, "#" comments and "---"
// separators are skipped; a leading "-" or "*" bullet is stripped.
func Parse(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var phrases []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || line == "-" || line == "*" || line == "---" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			line = strings.TrimSpace(line[2:])
		}
		if line == "" {
			continue
		}
		phrases = append(phrases, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return phrases, nil
}
