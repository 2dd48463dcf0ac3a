package domain

import (
	"context"
	"time"
)

// CacheIndex defines the interface for the database that mirrors the cache directory
type CacheIndex interface {
	// Record cache operations
	UpsertCard(ctx context.Context, entry CardIndexEntry) error
	ListCards(ctx context.Context, filter CardFilter) ([]*CardIndexEntry, error)
	TouchCard(ctx context.Context, sanitizedName, block string) error

	// Image cache operations
	UpsertImage(ctx context.Context, entry ImageIndexEntry) error
	CountImages(ctx context.Context) (int, error)

	// Reset empties every table, used before a full reindex
	Reset(ctx context.Context) error
}

// CardIndexEntry represents a record file in the cache
type CardIndexEntry struct {
	SanitizedName   string
	Block           string
	Name            string
	UUID            string
	SetName         string
	CollectorNumber string
	DoubleFaced     bool
	Path            string
	CachedAt        time.Time
	LastUsed        time.Time
}

// ImageIndexEntry represents an image file in the cache
type ImageIndexEntry struct {
	Path          string
	SanitizedName string
	Name          string
	Block         string
	Face          string
	UUID          string
	Size          int64
	CachedAt      time.Time
}

// CardFilter narrows ListCards results. Empty fields match everything.
type CardFilter struct {
	Block string
	Name  string
	Limit uint64
}
