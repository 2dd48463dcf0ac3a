package format

import (
	"encoding/csv"
	"errors"
	"regexp"
	"strings"
)

var errNoMatch = errors.New("line does not match format")

// LineParser extracts the card query from a single trimmed line.
type LineParser func(line string) (string, error)

var parsers = map[Kind]LineParser{
	KindPlain:        parsePlain,
	KindCollection:   parseCollection,
	KindShelf:        parseShelf,
	KindQuantityX:    parseQuantityX,
	KindBareQuantity: parseBareQuantity,
}

var (
	shelfRe     = regexp.MustCompile(`^\s*(.+)\((.*)\)\s+(\d+)`)
	quantityXRe = regexp.MustCompile(`^\s*(\d+)x\s+(.*)`)
	quantityRe  = regexp.MustCompile(`^\s*(\d+)\s+(.*)`)
)

// ParserFor returns the parser registered for kind.
func ParserFor(kind Kind) (LineParser, bool) {
	p, ok := parsers[kind]
	return p, ok
}

func parsePlain(line string) (string, error) {
	return strings.TrimSpace(line), nil
}

func parseShelf(line string) (string, error) {
	m := shelfRe.FindStringSubmatch(line)
	if m == nil {
		return "", errNoMatch
	}
	return strings.TrimSpace(m[1]), nil
}

func parseQuantityX(line string) (string, error) {
	m := quantityXRe.FindStringSubmatch(line)
	if m == nil {
		return "", errNoMatch
	}
	return strings.TrimSpace(m[2]), nil
}

func parseBareQuantity(line string) (string, error) {
	m := quantityRe.FindStringSubmatch(line)
	if m == nil {
		return "", errNoMatch
	}
	return strings.TrimSpace(m[2]), nil
}

// parseCollection takes the first column of a comma separated row.
func parseCollection(line string) (string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	row, err := r.Read()
	if err != nil || len(row) == 0 {
		return "", errNoMatch
	}
	return strings.TrimSpace(row[0]), nil
}
