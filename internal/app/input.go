package app

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/varoOP/scrycache/internal/domain"
	"github.com/varoOP/scrycache/internal/format"
)

// Input says where card requests come from. The first non-empty source wins:
// Args, then File, then URL, then the app's input reader.
type Input struct {
	Args     []string
	File     string
	URL      string
	Selector string
}

// Requests gathers the card requests described by in, merging duplicates.
func (a *App) Requests(ctx context.Context, in Input) ([]domain.Card, int, error) {
	requests, err := a.readRequests(ctx, in)
	if err != nil {
		return nil, 0, err
	}
	merged, dupes := a.dedupeService.Merge(requests)
	return merged, dupes, nil
}

func (a *App) readRequests(ctx context.Context, in Input) ([]domain.Card, error) {
	switch {
	case len(in.Args) > 0:
		return format.ParseRequests(in.Args)

	case in.File != "":
		kind, cards, err := format.ParseRequestFile(in.File)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", in.File, err)
		}
		a.log.Debug().Str("path", in.File).Str("format", kind.String()).Int("count", len(cards)).Msg("parsed list")
		return cards, nil

	case in.URL != "":
		lines, err := a.scraper.Scrape(ctx, in.URL, in.Selector)
		if err != nil {
			return nil, err
		}
		return a.parseLines(lines, in.URL)

	default:
		var lines []string
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		return a.parseLines(lines, "stdin")
	}
}

func (a *App) parseLines(lines []string, source string) ([]domain.Card, error) {
	kind := format.DetectLines(lines)
	cards, err := format.ParseRequestLines(kind, lines)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	a.log.Debug().Str("source", source).Str("format", kind.String()).Int("count", len(cards)).Msg("parsed list")
	return cards, nil
}

// Parse prints the detected format of the list at path followed by its card
// requests, one per line.
func (a *App) Parse(path string) error {
	kind, cards, err := format.ParseRequestFile(path)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(a.out, "format: %s\n", kind); err != nil {
		return err
	}
	for _, c := range cards {
		if _, err := fmt.Fprintln(a.out, requestLine(c)); err != nil {
			return err
		}
	}
	return nil
}

// Scrape prints the list lines found at url.
func (a *App) Scrape(ctx context.Context, url, selector string) error {
	lines, err := a.scraper.Scrape(ctx, url, selector)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		a.log.Warn().Str("url", url).Msg("no list lines found")
		return nil
	}
	_, err = fmt.Fprintln(a.out, strings.Join(lines, "\n"))
	return err
}

// requestLine renders a request back in the quantity-x grammar
func requestLine(c domain.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx %s", c.Quantity, c.Name)
	if c.Block != "" {
		fmt.Fprintf(&b, " (%s)", c.Block)
	}
	if c.SetName != "" {
		fmt.Fprintf(&b, " %s", c.SetName)
	}
	return b.String()
}
