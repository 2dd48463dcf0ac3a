package domain

import (
	"context"
)

// ManifestRepository defines the interface for fetch manifest storage
type ManifestRepository interface {
	GetManifest(ctx context.Context, path string) (*Manifest, error)
	StoreManifest(ctx context.Context, path string, manifest *Manifest) error
}

// Manifest records what a download run produced
type Manifest struct {
	Cards []ManifestCard `yaml:"cards"`
}

// ManifestCard represents a single fetched card
type ManifestCard struct {
	Name            string   `yaml:"name"`
	Quantity        int      `yaml:"quantity"`
	UUID            string   `yaml:"uuid"`
	Block           string   `yaml:"block,omitempty"`
	SetName         string   `yaml:"setName,omitempty"`
	CollectorNumber string   `yaml:"collectorNumber,omitempty"`
	Images          []string `yaml:"images,omitempty"`
}

// Add records card c with the image files written for it, replacing an
// earlier entry for the same name and block.
func (m *Manifest) Add(c Card, images []string) {
	entry := ManifestCard{
		Name:            c.Name,
		Quantity:        c.Quantity,
		UUID:            c.UUID,
		Block:           c.BlockKey(),
		SetName:         c.SetName,
		CollectorNumber: c.CollectorNumber,
		Images:          images,
	}

	for i, existing := range m.Cards {
		if existing.Name == entry.Name && existing.Block == entry.Block {
			m.Cards[i] = entry
			return
		}
	}
	m.Cards = append(m.Cards, entry)
}
