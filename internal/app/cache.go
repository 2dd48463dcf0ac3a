package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/varoOP/scrycache/internal/cache"
	"github.com/varoOP/scrycache/internal/domain"
)

var errIndexDisabled = errors.New("the cache index is disabled (set index: true)")

// Reindex rebuilds the cache index from the files on disk.
func (a *App) Reindex(ctx context.Context) (cache.ReindexStats, error) {
	if a.index == nil {
		return cache.ReindexStats{}, errIndexDisabled
	}
	return cache.Reindex(ctx, a.store, a.index, a.log)
}

// CacheList prints the indexed cards as a table.
func (a *App) CacheList(ctx context.Context, filter domain.CardFilter) error {
	if a.index == nil {
		return errIndexDisabled
	}

	entries, err := a.index.ListCards(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list cached cards: %w", err)
	}
	images, err := a.index.CountImages(ctx)
	if err != nil {
		return fmt.Errorf("failed to count cached images: %w", err)
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(a.out, "No cached cards.")
		return err
	}

	if _, err := fmt.Fprintln(a.out, renderCacheTable(entries)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "%d cards, %d images\n", len(entries), images)
	return err
}

func renderCacheTable(entries []*domain.CardIndexEntry) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Name", "Block", "Set", "CN", "Faces", "Last Used"})

	for _, e := range entries {
		faces := 1
		if e.DoubleFaced {
			faces = 2
		}
		lastUsed := ""
		if !e.LastUsed.IsZero() {
			lastUsed = e.LastUsed.Local().Format("2006-01-02 15:04")
		}
		tw.AppendRow(table.Row{e.Name, e.Block, e.SetName, e.CollectorNumber, faces, lastUsed})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
