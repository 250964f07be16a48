package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
	"unicode"
)

const commentPrefix = "#"

// isSeparator reports half- and full-width commas and semicolons and any
// Unicode white space, which covers NBSP, em space and the ideographic space.
func isSeparator(r rune) bool {
	switch r {
	case ',', '，', ';', '；':
		return true
	}
	return unicode.IsSpace(r)
}

// ParseInput turns free text into an ordered list of unique, non-empty items.
// The first occurrence of a duplicate wins.
func ParseInput(raw string) []string {
	parts := strings.FieldsFunc(raw, isSeparator)
	seen := make(map[string]struct{}, len(parts))
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		items = append(items, p)
	}
	return items
}

// ParseFile reads a list file from the given path and extracts its items.
func ParseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a list from an io.Reader. Lines starting with '#' are skipped,
// everything else is fed through ParseInput as one block.
func Parse(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var b strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), commentPrefix) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ParseInput(b.String()), nil
}
