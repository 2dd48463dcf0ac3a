// Package scryfall resolves card names, images and searches against a
// Scryfall compatible catalog, reading through the on-disk card cache.
//
// Every outbound request goes through the throttle first. Calls are
// synchronous; a Service is meant to be used from one goroutine.
package scryfall

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/scrycache/internal/cache"
	"github.com/varoOP/scrycache/internal/domain"
	"github.com/varoOP/scrycache/pkg/cardname"
)

const (
	DefaultServerURL   = "https://api.scryfall.com"
	DefaultUserAgent   = "scrycache/dev"
	defaultHTTPTimeout = 30 * time.Second
	maxSearchPages     = 100
)

type Service interface {
	ResolveByName(ctx context.Context, name, block string) (*domain.Card, error)
	FetchImage(ctx context.Context, card domain.Card, face string) ([]byte, error)
	Search(ctx context.Context, query string) ([]domain.Card, error)
}

// Throttler paces outbound requests
type Throttler interface {
	Throttle(ctx context.Context) error
}

type service struct {
	log     zerolog.Logger
	baseURL *url.URL
	http    *http.Client
	store   *cache.Store
	limiter Throttler
	index   domain.CacheIndex
}

type listResponse struct {
	Object     string               `json:"object"`
	TotalCards int                  `json:"total_cards"`
	HasMore    bool                 `json:"has_more"`
	NextPage   string               `json:"next_page"`
	Data       []domain.CardPayload `json:"data"`
}

type userAgentTransport struct {
	Transport http.RoundTripper
	UserAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Transport == nil {
		t.Transport = http.DefaultTransport
	}
	req.Header.Set("User-Agent", t.UserAgent)
	req.Header.Set("Accept", "application/json;q=0.9,*/*;q=0.8")
	return t.Transport.RoundTrip(req)
}

// NewService creates a catalog client. index may be nil.
func NewService(log zerolog.Logger, config *domain.Config, store *cache.Store, limiter Throttler, index domain.CacheIndex) (Service, error) {
	base := strings.TrimSpace(config.ServerURL)
	if base == "" {
		base = DefaultServerURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse server url")
	}

	userAgent := strings.TrimSpace(config.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := config.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &service{
		log:     log.With().Str("module", "scryfall").Logger(),
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: &userAgentTransport{UserAgent: userAgent},
		},
		store:   store,
		limiter: limiter,
		index:   index,
	}, nil
}

// ResolveByName returns the canonical card for name, optionally pinned to a
// block. A cached record is only used when it belongs to the requested block.
// A card the catalog does not know yields nil and no error.
func (s *service) ResolveByName(ctx context.Context, name, block string) (*domain.Card, error) {
	name = strings.TrimSpace(name)
	block = strings.TrimSpace(block)
	if name == "" {
		return nil, errors.New("card name is required")
	}

	key := cardname.Sanitize(name)
	card, err := s.lookupRecord(ctx, key, block)
	if err != nil {
		return nil, err
	}
	if card != nil {
		s.log.Debug().Str("name", card.Name).Str("block", card.Block).Msg("card cache hit")
		return card, nil
	}

	params := url.Values{}
	params.Set("fuzzy", name)
	if block != "" {
		params.Set("set", block)
	}

	resp, err := s.get(ctx, s.endpoint(params, "cards", "named"))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		s.log.Warn().Str("name", name).Str("block", block).Msg("card not found")
		return nil, nil
	}
	if !isSuccess(resp.StatusCode) {
		return nil, newAPIError(resp)
	}

	var payload domain.CardPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal card")
	}
	if payload.Name == "" {
		return nil, errors.Errorf("catalog returned a card without a name for %q", name)
	}

	resolved := domain.NewCardFromPayload(payload)
	path := s.store.RecordPath(cardname.Sanitize(resolved.Name), resolved.Block)
	if err := s.store.WriteRecord(path, payload); err != nil {
		return nil, errors.Wrap(err, "failed to cache card")
	}
	s.indexCard(ctx, resolved, path)

	return &resolved, nil
}

// lookupRecord probes the record cache for key. With a block it tries the
// block record and then the blockless one; without a block it takes the
// blockless record, or the only block record on disk when there is exactly one.
func (s *service) lookupRecord(ctx context.Context, key, block string) (*domain.Card, error) {
	if block != "" {
		for _, path := range []string{s.store.RecordPath(key, block), s.store.RecordPath(key, "")} {
			card, err := s.readCard(path, key)
			if err != nil {
				return nil, err
			}
			if card == nil {
				continue
			}
			if card.Block == "" || strings.EqualFold(card.Block, block) {
				s.touchCard(ctx, key, card.BlockKey())
				return card, nil
			}
		}
		return nil, nil
	}

	card, err := s.readCard(s.store.RecordPath(key, ""), key)
	if err != nil || card != nil {
		if card != nil {
			s.touchCard(ctx, key, "")
		}
		return card, err
	}

	candidates, err := s.store.RecordCandidates(key)
	if err != nil {
		return nil, err
	}
	var found []*domain.Card
	for _, c := range candidates {
		card, err := s.readCard(c.Path, key)
		if err != nil {
			return nil, err
		}
		if card != nil {
			found = append(found, card)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		s.touchCard(ctx, key, found[0].BlockKey())
		return found[0], nil
	default:
		s.log.Debug().Str("key", key).Int("blocks", len(found)).Msg("several printings cached, asking the catalog")
		return nil, nil
	}
}

// readCard decodes the record at path. Records whose name or block do not
// match the path are ignored.
func (s *service) readCard(path, key string) (*domain.Card, error) {
	var payload domain.CardPayload
	found, err := s.store.ReadRecord(path, &payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cached card")
	}
	if !found {
		return nil, nil
	}

	card := domain.NewCardFromPayload(payload)
	if cardname.Sanitize(card.Name) != key || s.store.RecordPath(key, card.Block) != path {
		s.log.Warn().Str("path", path).Str("name", card.Name).Str("block", card.Block).Msg("cached record does not match its path, ignoring")
		return nil, nil
	}
	return &card, nil
}

// FetchImage returns the PNG for one face of card. Double faced cards need a
// separate call per face.
func (s *service) FetchImage(ctx context.Context, card domain.Card, face string) ([]byte, error) {
	if face == "" {
		face = domain.FaceFront
	}
	if face != domain.FaceFront && face != domain.FaceBack {
		return nil, errors.Errorf("unknown card face %q", face)
	}

	key := cardname.Sanitize(card.Name)
	path := s.store.ImagePath(key, card.Block, face)
	data, found, err := s.store.ReadBytes(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cached image")
	}
	if found {
		s.log.Debug().Str("name", card.Name).Str("face", face).Msg("image cache hit")
		return data, nil
	}

	id, err := uuid.Parse(card.UUID)
	if err != nil {
		return nil, errors.Wrapf(err, "card %q has no valid catalog id", card.Name)
	}

	params := url.Values{}
	params.Set("format", "image")
	params.Set("version", "png")
	if face != domain.FaceFront {
		params.Set("face", face)
	}

	target := s.endpoint(params, "cards", id.String())
	resp, err := s.get(ctx, target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, newAPIError(resp)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, &ContentTypeError{ContentType: contentType, URL: target}
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image")
	}
	if err := s.store.WriteBytes(path, data); err != nil {
		return nil, errors.Wrap(err, "failed to cache image")
	}
	s.indexImage(ctx, card, key, face, path, int64(len(data)))

	return data, nil
}

// Search runs a catalog query and follows result pages. A query the catalog
// rejects or that matches nothing returns an empty slice.
func (s *service) Search(ctx context.Context, query string) ([]domain.Card, error) {
	params := url.Values{}
	params.Set("q", query)

	cards := []domain.Card{}
	next := s.endpoint(params, "cards", "search")
	for page := 1; next != "" && page <= maxSearchPages; page++ {
		list, ok, err := s.searchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		if !ok {
			if page == 1 {
				return []domain.Card{}, nil
			}
			s.log.Warn().Int("page", page).Msg("search page failed, returning partial results")
			break
		}

		for _, p := range list.Data {
			cards = append(cards, domain.NewCardFromPayload(p))
		}

		if !list.HasMore || list.NextPage == next {
			break
		}
		next = list.NextPage
	}

	s.log.Debug().Str("query", query).Int("count", len(cards)).Msg("search complete")
	return cards, nil
}

func (s *service) searchPage(ctx context.Context, target string) (*listResponse, bool, error) {
	resp, err := s.get(ctx, target)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		s.log.Debug().Int("status", resp.StatusCode).Str("url", target).Msg("search returned no results")
		return nil, false, nil
	}

	list := &listResponse{}
	if err := json.NewDecoder(resp.Body).Decode(list); err != nil {
		return nil, false, errors.Wrap(err, "failed to unmarshal search response")
	}
	return list, true, nil
}

func (s *service) endpoint(params url.Values, elem ...string) string {
	target := s.baseURL.JoinPath(elem...)
	target.RawQuery = params.Encode()
	return target.String()
}

// get throttles and then issues a GET for target.
func (s *service) get(ctx context.Context, target string) (*http.Response, error) {
	if err := s.limiter.Throttle(ctx); err != nil {
		return nil, errors.Wrap(err, "throttle interrupted")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	s.log.Debug().Str("url", target).Msg("GET")
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch")
	}
	s.log.Trace().Int("status", resp.StatusCode).Str("url", target).Msg("RESPONSE")
	return resp, nil
}

func (s *service) indexCard(ctx context.Context, card domain.Card, path string) {
	if s.index == nil {
		return
	}
	now := time.Now().UTC()
	entry := domain.CardIndexEntry{
		SanitizedName:   cardname.Sanitize(card.Name),
		Block:           card.BlockKey(),
		Name:            card.Name,
		UUID:            card.UUID,
		SetName:         card.SetName,
		CollectorNumber: card.CollectorNumber,
		DoubleFaced:     card.IsDoubleFaced,
		Path:            path,
		CachedAt:        now,
		LastUsed:        now,
	}
	if err := s.index.UpsertCard(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to update cache index")
	}
}

func (s *service) touchCard(ctx context.Context, key, block string) {
	if s.index == nil {
		return
	}
	if err := s.index.TouchCard(ctx, key, block); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to update cache index")
	}
}

func (s *service) indexImage(ctx context.Context, card domain.Card, key, face, path string, size int64) {
	if s.index == nil {
		return
	}
	entry := domain.ImageIndexEntry{
		Path:          path,
		SanitizedName: key,
		Name:          card.Name,
		Block:         card.BlockKey(),
		Face:          face,
		UUID:          card.UUID,
		Size:          size,
		CachedAt:      time.Now().UTC(),
	}
	if err := s.index.UpsertImage(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to update cache index")
	}
}
