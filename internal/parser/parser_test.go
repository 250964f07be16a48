package parser

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseInput(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Empty input",
			input:    "",
			expected: []string{},
		},
		{
			name:     "Only separators",
			input:    " ,;，； \n\t",
			expected: []string{},
		},
		{
			name:     "Half-width commas",
			input:    "sushi,ramen,pizza",
			expected: []string{"sushi", "ramen", "pizza"},
		},
		{
			name:     "Full-width punctuation",
			input:    "麻辣烫，寿司；拉面",
			expected: []string{"麻辣烫", "寿司", "拉面"},
		},
		{
			name:     "Mixed separators and runs",
			input:    "a, b;;  c\n\nd\t,e",
			expected: []string{"a", "b", "c", "d", "e"},
		},
		{
			name:     "Duplicates keep first occurrence",
			input:    "b a b c a",
			expected: []string{"b", "a", "c"},
		},
		{
			name:     "Ideographic space",
			input:    "米线　汉堡",
			expected: []string{"米线", "汉堡"},
		},
		{
			name:     "No-break space",
			input:    "a\u00a0b",
			expected: []string{"a", "b"},
		},
		{
			name:     "Em space and vertical tab",
			input:    "a\u2003b\vc",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "Case sensitive",
			input:    "Tea tea",
			expected: []string{"Tea", "tea"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseInput(tc.input)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Expected %q, but got %q", tc.expected, got)
			}
		})
	}
}

func TestParse(t *testing.T) {
	input := `# lunch options
Fried rice, Ramen
  # indented comment
Sushi
Ramen
`
	items, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	expected := []string{"Fried", "rice", "Ramen", "Sushi"}
	if !reflect.DeepEqual(items, expected) {
		t.Errorf("Expected %q, but got %q", expected, items)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drinks.txt")
	if err := os.WriteFile(path, []byte("tea;coffee；juice"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	items, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() returned an unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, but got %d", len(items))
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
