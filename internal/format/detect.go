// Package format turns card list exports into card queries.
//
// A list's format is detected once, from the extension or its first data
// line, and every line of the list is then parsed with that format's parser.
package format

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind identifies a list format
type Kind int

const (
	KindPlain Kind = iota
	KindCollection
	KindShelf
	KindQuantityX
	KindBareQuantity
)

func (k Kind) String() string {
	switch k {
	case KindCollection:
		return "collection export"
	case KindShelf:
		return "shelf export"
	case KindQuantityX:
		return "quantity-x"
	case KindBareQuantity:
		return "bare-quantity"
	default:
		return "plain name"
	}
}

var (
	commentRe = regexp.MustCompile(`^(#|//)`)
	sectionRe = regexp.MustCompile(`^\[.*\]`)

	detectShelfRe     = regexp.MustCompile(`^.+\(.*\)\s+\d+`)
	detectQuantityXRe = regexp.MustCompile(`^\d+x\s+\S`)
	detectQuantityRe  = regexp.MustCompile(`^\d+\s+\S`)
)

// FormatMismatchError reports a line that does not fit the detected format.
type FormatMismatchError struct {
	Line int
	Text string
	Kind Kind
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("line %d does not match %s format: %q", e.Line, e.Kind, e.Text)
}

// skipLine reports whether a trimmed line carries no card.
func skipLine(line string) bool {
	return line == "" || commentRe.MatchString(line) || sectionRe.MatchString(line)
}

func isCollectionFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// DetectFormat classifies the list stored at path.
func DetectFormat(path string) (Kind, error) {
	if isCollectionFile(path) {
		return KindCollection, nil
	}
	lines, err := readLines(path)
	if err != nil {
		return KindPlain, err
	}
	return DetectLines(lines), nil
}

// DetectLines classifies in-memory list lines by their first data line.
func DetectLines(lines []string) Kind {
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if skipLine(line) {
			continue
		}
		return classify(line)
	}
	return KindPlain
}

func classify(line string) Kind {
	switch {
	case detectShelfRe.MatchString(line):
		return KindShelf
	case detectQuantityXRe.MatchString(line):
		return KindQuantityX
	case detectQuantityRe.MatchString(line):
		return KindBareQuantity
	default:
		return KindPlain
	}
}

// ParseFile detects the format of the list at path and returns one card
// query per data line.
func ParseFile(path string) ([]string, error) {
	kind, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	return Parse(kind, lines)
}

// Parse extracts card queries from lines using the parser for kind. Parsing
// stops at the first line that does not match.
func Parse(kind Kind, lines []string) ([]string, error) {
	parse, ok := parsers[kind]
	if !ok {
		return nil, fmt.Errorf("no parser for format %d", kind)
	}

	cards := []string{}
	err := eachDataLine(kind, lines, func(n int, line string) error {
		name, err := parse(line)
		if err != nil {
			return &FormatMismatchError{Line: n, Text: line, Kind: kind}
		}
		if name != "" {
			cards = append(cards, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// eachDataLine calls fn with the 1-based line number and trimmed text of every
// line that carries a card, skipping the header row of collection exports.
func eachDataLine(kind Kind, lines []string, fn func(n int, line string) error) error {
	for i, raw := range lines {
		if kind == KindCollection && i == 0 {
			continue // header row
		}
		line := strings.TrimSpace(raw)
		if skipLine(line) {
			continue
		}
		if err := fn(i+1, line); err != nil {
			return err
		}
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open list %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list %s: %w", path, err)
	}
	return lines, nil
}
