package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/varoOP/scrycache/internal/domain"
)

// requestRe matches "[qty][x] name [(block) [set name]]". The name is lazy so
// a trailing parenthetical is always read as the block, even when it is part
// of the card's real name.
var requestRe = regexp.MustCompile(`^(\d+)?[x\s]?(.+?)(?:\s*\((.+?)\)\s*(.+)?)?$`)

// QuantityError reports a quantity prefix that does not fit in an int.
type QuantityError struct {
	Text string
	Err  error
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("invalid quantity in %q: %v", e.Text, e.Err)
}

func (e *QuantityError) Unwrap() error {
	return e.Err
}

// ParseRequest turns one input line into a partial card. Comments and blank
// lines yield false. A quantity too large for an int is a *QuantityError.
func ParseRequest(line string) (domain.Card, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || commentRe.MatchString(line) {
		return domain.Card{}, false, nil
	}

	m := requestRe.FindStringSubmatch(line)
	if m == nil {
		return domain.NewCardRequest(line, "", "", 1), true, nil
	}

	quantity := 1
	if m[1] != "" {
		q, err := strconv.Atoi(m[1])
		if err != nil {
			return domain.Card{}, false, &QuantityError{Text: line, Err: err}
		}
		quantity = q
	}
	return domain.NewCardRequest(m[2], m[3], m[4], quantity), true, nil
}

// ParseRequests applies ParseRequest to every line, dropping comments.
func ParseRequests(lines []string) ([]domain.Card, error) {
	cards := make([]domain.Card, 0, len(lines))
	for i, line := range lines {
		c, ok, err := ParseRequest(line)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i+1, err)
		}
		if ok {
			cards = append(cards, c)
		}
	}
	return cards, nil
}

// ParseRequestLines turns the data lines of a list in format kind into card
// requests. Lines are validated against the format like Parse does. Shelf
// exports carry the block in parentheses; quantity-prefixed and plain lines go
// through the request grammar so quantities and blocks survive.
func ParseRequestLines(kind Kind, lines []string) ([]domain.Card, error) {
	parse, ok := parsers[kind]
	if !ok {
		return nil, fmt.Errorf("no parser for format %d", kind)
	}

	cards := []domain.Card{}
	err := eachDataLine(kind, lines, func(n int, line string) error {
		name, err := parse(line)
		if err != nil {
			return &FormatMismatchError{Line: n, Text: line, Kind: kind}
		}
		if name == "" {
			return nil
		}

		switch kind {
		case KindShelf:
			m := shelfRe.FindStringSubmatch(line)
			cards = append(cards, domain.NewCardRequest(name, m[2], "", 1))
		case KindCollection:
			cards = append(cards, domain.NewCardRequest(name, "", "", 1))
		default:
			c, ok, err := ParseRequest(line)
			if err != nil {
				return &FormatMismatchError{Line: n, Text: line, Kind: kind}
			}
			if ok {
				cards = append(cards, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// ParseRequestFile detects the format of the list at path and returns its
// card requests.
func ParseRequestFile(path string) (Kind, []domain.Card, error) {
	kind, err := DetectFormat(path)
	if err != nil {
		return kind, nil, err
	}
	lines, err := readLines(path)
	if err != nil {
		return kind, nil, err
	}
	cards, err := ParseRequestLines(kind, lines)
	return kind, cards, err
}
