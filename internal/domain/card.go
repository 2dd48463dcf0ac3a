package domain

import (
	"encoding/json"
	"strings"
)

const (
	FaceFront = "front"
	FaceBack  = "back"
)

// Card is a card printing as known to the catalog. Cards built from a request
// line only carry Name, Block, SetName and Quantity.
type Card struct {
	Name            string `json:"name"`
	UUID            string `json:"uuid,omitempty"`
	Block           string `json:"block,omitempty"`
	SetName         string `json:"set_name,omitempty"`
	CollectorNumber string `json:"collector_number,omitempty"`
	IsDoubleFaced   bool   `json:"is_double_faced"`
	Quantity        int    `json:"quantity"`
}

// CardPayload is the card document returned by the catalog API. The record
// cache stores it as received so cached and fresh reads decode the same way.
type CardPayload struct {
	Object          string            `json:"object,omitempty"`
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Set             string            `json:"set,omitempty"`
	SetName         string            `json:"set_name,omitempty"`
	CollectorNumber string            `json:"collector_number,omitempty"`
	CardFaces       []json.RawMessage `json:"card_faces,omitempty"`
}

// NewCardFromPayload builds a canonical Card from a catalog payload.
func NewCardFromPayload(p CardPayload) Card {
	return Card{
		Name:            p.Name,
		UUID:            p.ID,
		Block:           p.Set,
		SetName:         p.SetName,
		CollectorNumber: p.CollectorNumber,
		IsDoubleFaced:   len(p.CardFaces) > 1,
		Quantity:        1,
	}
}

// NewCardRequest builds the partial card a request line describes.
func NewCardRequest(name, block, setName string, quantity int) Card {
	if quantity < 1 {
		quantity = 1
	}
	return Card{
		Name:     strings.TrimSpace(name),
		Block:    strings.TrimSpace(block),
		SetName:  strings.TrimSpace(setName),
		Quantity: quantity,
	}
}

// WithQuantity returns a copy of c carrying quantity q.
func (c Card) WithQuantity(q int) Card {
	if q < 1 {
		q = 1
	}
	c.Quantity = q
	return c
}

// BlockKey is the upper-cased block used in cache keys, empty when unknown.
func (c Card) BlockKey() string {
	return strings.ToUpper(strings.TrimSpace(c.Block))
}

// Faces lists the faces a caller should fetch for c.
func (c Card) Faces() []string {
	if c.IsDoubleFaced {
		return []string{FaceFront, FaceBack}
	}
	return []string{FaceFront}
}
