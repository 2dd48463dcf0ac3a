package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/varoOP/scrycache/internal/domain"
)

// ListOptions controls how resolved cards are printed
type ListOptions struct {
	WithBlock bool
	WithCN    bool
	WithSet   bool
	JSON      bool

	// Output is a file to write to instead of stdout. An existing directory
	// means stdout.
	Output string
	DryRun bool
}

// List resolves every request in in and prints the canonical cards.
func (a *App) List(ctx context.Context, in Input, opts ListOptions) error {
	requests, _, err := a.Requests(ctx, in)
	if err != nil {
		return err
	}

	cards := make([]domain.Card, 0, len(requests))
	for _, r := range requests {
		if opts.DryRun {
			a.log.Info().Str("name", r.Name).Str("block", r.Block).Msg("[dryrun] GET /cards/named")
			cards = append(cards, r)
			continue
		}

		card, err := a.catalog.ResolveByName(ctx, r.Name, r.Block)
		if err != nil {
			return err
		}
		if card == nil {
			a.log.Error().Str("name", r.Name).Msg("Card not found")
			continue
		}
		cards = append(cards, card.WithQuantity(r.Quantity))
	}

	a.log.Info().Msgf("Found %d cards.", len(cards))
	return a.writeCards(cards, opts)
}

// Search runs a catalog query and prints the matching cards.
func (a *App) Search(ctx context.Context, query string, opts ListOptions) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("no query provided")
	}

	if opts.DryRun {
		a.log.Info().Str("query", query).Msg("[dryrun] GET /cards/search")
		return nil
	}

	cards, err := a.catalog.Search(ctx, query)
	if err != nil {
		return err
	}
	a.log.Info().Msgf("Found %d cards.", len(cards))
	if len(cards) == 0 {
		return nil
	}
	return a.writeCards(cards, opts)
}

func (a *App) writeCards(cards []domain.Card, opts ListOptions) error {
	output, err := renderCards(cards, opts)
	if err != nil {
		return err
	}

	if opts.Output != "" {
		if info, err := os.Stat(opts.Output); err != nil || !info.IsDir() {
			if err := os.WriteFile(opts.Output, []byte(output+"\n"), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", opts.Output, err)
			}
			a.log.Info().Msgf("Results saved to %s", opts.Output)
			return nil
		}
	}

	_, err = fmt.Fprintln(a.out, output)
	return err
}

func renderCards(cards []domain.Card, opts ListOptions) (string, error) {
	if opts.JSON {
		b, err := json.MarshalIndent(cards, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal cards: %w", err)
		}
		return string(b), nil
	}

	lines := make([]string, 0, len(cards))
	for _, c := range cards {
		lines = append(lines, cardLine(c, opts))
	}
	return strings.Join(lines, "\n"), nil
}

// cardLine renders "name (BLOCK) collector-number set name" with the parts
// the options ask for.
func cardLine(c domain.Card, opts ListOptions) string {
	parts := []string{c.Name}
	if opts.WithBlock && c.Block != "" {
		parts = append(parts, "("+c.BlockKey()+")")
	}
	if opts.WithCN && c.CollectorNumber != "" {
		parts = append(parts, c.CollectorNumber)
	}
	if opts.WithSet && c.SetName != "" {
		parts = append(parts, c.SetName)
	}
	return strings.Join(parts, " ")
}
