package dedupe

import (
	"github.com/rs/zerolog"
	"github.com/varoOP/scrycache/internal/domain"
	"github.com/varoOP/scrycache/pkg/cardname"
)

type Service interface {
	Merge(requests []domain.Card) ([]domain.Card, int)
}

type service struct {
	log zerolog.Logger
}

func NewService(log zerolog.Logger) Service {
	return &service{
		log: log.With().Str("module", "dedupe").Logger(),
	}
}

// Merge collapses requests naming the same card and block into the first
// occurrence, summing quantities. Order of first occurrence is kept. The
// returned count is the number of requests folded away.
func (s *service) Merge(requests []domain.Card) ([]domain.Card, int) {
	merged := make([]domain.Card, 0, len(requests))
	seen := make(map[string]int, len(requests))
	dupes := 0

	for _, r := range requests {
		k := key(r)
		if i, ok := seen[k]; ok {
			merged[i].Quantity += max(r.Quantity, 1)
			dupes++
			s.log.Debug().Str("name", r.Name).Str("block", r.Block).Int("quantity", merged[i].Quantity).Msg("merged duplicate request")
			continue
		}
		seen[k] = len(merged)
		merged = append(merged, r.WithQuantity(r.Quantity))
	}

	if dupes > 0 {
		s.log.Info().Int("dupe_count", dupes).Msg("Found duplicates")
	}
	return merged, dupes
}

func key(c domain.Card) string {
	return cardname.Sanitize(c.Name) + "\x00" + c.BlockKey()
}
