package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/varoOP/scrycache/internal/cache"
	"github.com/varoOP/scrycache/internal/domain"
)

const (
	lotusID  = "b0faa7f2-b547-42c4-a810-839da50dadfe"
	delverID = "11bf83bb-c95b-4b4f-9a56-ce7a1816307a"
)

type countingThrottle struct {
	calls int
}

func (c *countingThrottle) Throttle(ctx context.Context) error {
	c.calls++
	return ctx.Err()
}

type recordingIndex struct {
	mu      sync.Mutex
	cards   []domain.CardIndexEntry
	images  []domain.ImageIndexEntry
	touched []string
}

func (r *recordingIndex) UpsertCard(ctx context.Context, entry domain.CardIndexEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = append(r.cards, entry)
	return nil
}

func (r *recordingIndex) ListCards(ctx context.Context, filter domain.CardFilter) ([]*domain.CardIndexEntry, error) {
	return nil, nil
}

func (r *recordingIndex) TouchCard(ctx context.Context, sanitizedName, block string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched = append(r.touched, sanitizedName+"|"+block)
	return nil
}

func (r *recordingIndex) UpsertImage(ctx context.Context, entry domain.ImageIndexEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = append(r.images, entry)
	return nil
}

func (r *recordingIndex) CountImages(ctx context.Context) (int, error) {
	return len(r.images), nil
}

func (r *recordingIndex) Reset(ctx context.Context) error {
	return nil
}

// catalog is a fake card API that counts requests per path.
type catalog struct {
	mu    sync.Mutex
	hits  map[string]int
	total int
	h     http.HandlerFunc
}

func newCatalog(h http.HandlerFunc) *catalog {
	return &catalog{hits: map[string]int{}, h: h}
}

func (c *catalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.hits[r.URL.Path]++
	c.total++
	c.mu.Unlock()
	c.h(w, r)
}

func (c *catalog) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

type fixture struct {
	svc      Service
	store    *cache.Store
	throttle *countingThrottle
	catalog  *catalog
	server   *httptest.Server
	index    *recordingIndex
}

func newFixture(t *testing.T, h http.HandlerFunc) *fixture {
	t.Helper()

	cat := newCatalog(h)
	srv := httptest.NewServer(cat)
	t.Cleanup(srv.Close)

	store, err := cache.New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}

	throttle := &countingThrottle{}
	index := &recordingIndex{}
	cfg := &domain.Config{ServerURL: srv.URL, UserAgent: "scrycache-test/1.0"}
	svc, err := NewService(zerolog.Nop(), cfg, store, throttle, index)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	return &fixture{svc: svc, store: store, throttle: throttle, catalog: cat, server: srv, index: index}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorResponse{Object: "error", Code: "not_found", Status: 404, Details: "No cards found matching the given name"})
}

func lotus(set string) domain.CardPayload {
	return domain.CardPayload{
		Object:          "card",
		ID:              lotusID,
		Name:            "Black Lotus",
		Set:             set,
		SetName:         "Limited Edition Alpha",
		CollectorNumber: "232",
	}
}

// lotusHandler answers /cards/named with a Black Lotus printing from the
// requested set, or from lea when none is requested.
func lotusHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/cards/named" {
		notFound(w)
		return
	}
	if !strings.EqualFold(r.URL.Query().Get("fuzzy"), "black lotus") {
		notFound(w)
		return
	}
	set := strings.ToLower(r.URL.Query().Get("set"))
	if set == "" {
		set = "lea"
	}
	writeJSON(w, http.StatusOK, lotus(set))
}

func TestResolveByNameWritesThrough(t *testing.T) {
	var gotQuery, gotAgent string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAgent = r.Header.Get("User-Agent")
		lotusHandler(w, r)
	})
	ctx := context.Background()

	first, err := f.svc.ResolveByName(ctx, "Black Lotus", "LEA")
	if err != nil {
		t.Fatalf("ResolveByName: %v", err)
	}
	if first == nil || first.Name != "Black Lotus" || first.UUID != lotusID || first.Block != "lea" {
		t.Fatalf("unexpected card %+v", first)
	}
	if gotQuery != "fuzzy=Black+Lotus&set=LEA" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAgent != "scrycache-test/1.0" {
		t.Errorf("User-Agent = %q", gotAgent)
	}
	if _, err := os.Stat(f.store.RecordPath("Black Lotus", "LEA")); err != nil {
		t.Fatalf("record not written: %v", err)
	}

	second, err := f.svc.ResolveByName(ctx, "Black Lotus", "LEA")
	if err != nil {
		t.Fatalf("ResolveByName: %v", err)
	}
	if second == nil || *second != *first {
		t.Errorf("cached card = %+v, want %+v", second, first)
	}
	if got := f.catalog.Total(); got != 1 {
		t.Errorf("remote calls = %d, want 1", got)
	}
	if f.throttle.calls != 1 {
		t.Errorf("throttle calls = %d, want 1", f.throttle.calls)
	}

	if len(f.index.cards) != 1 {
		t.Fatalf("indexed cards = %d, want 1", len(f.index.cards))
	}
	entry := f.index.cards[0]
	if entry.Block != "LEA" || entry.SanitizedName != "Black Lotus" || entry.Path != f.store.RecordPath("Black Lotus", "LEA") {
		t.Errorf("unexpected index entry %+v", entry)
	}
	if len(f.index.touched) != 1 || f.index.touched[0] != "Black Lotus|LEA" {
		t.Errorf("touched = %v", f.index.touched)
	}
}

func TestResolveByNameBlockCorrectness(t *testing.T) {
	f := newFixture(t, lotusHandler)
	ctx := context.Background()

	// an LEA printing is cached but the caller asks for 2ED
	if err := f.store.WriteRecord(f.store.RecordPath("Black Lotus", "LEA"), lotus("lea")); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	card, err := f.svc.ResolveByName(ctx, "Black Lotus", "2ED")
	if err != nil {
		t.Fatalf("ResolveByName: %v", err)
	}
	if card == nil || card.Block != "2ed" {
		t.Fatalf("card = %+v, want the 2ed printing", card)
	}
	if got := f.catalog.Total(); got != 1 {
		t.Errorf("remote calls = %d, want 1", got)
	}

	// both printings are on disk now, each request gets its own
	for _, block := range []string{"lea", "LEA", "2ED"} {
		card, err := f.svc.ResolveByName(ctx, "Black Lotus", block)
		if err != nil {
			t.Fatalf("ResolveByName(%s): %v", block, err)
		}
		if card == nil || !strings.EqualFold(card.Block, block) {
			t.Errorf("ResolveByName(%s) = %+v", block, card)
		}
	}
	if got := f.catalog.Total(); got != 1 {
		t.Errorf("remote calls = %d, want 1", got)
	}

	// two printings on disk make a block-less request ambiguous
	if _, err := f.svc.ResolveByName(ctx, "Black Lotus", ""); err != nil {
		t.Fatalf("ResolveByName: %v", err)
	}
	if got := f.catalog.Total(); got != 2 {
		t.Errorf("remote calls = %d, want 2", got)
	}
}

func TestResolveByNameWithoutBlock(t *testing.T) {
	f := newFixture(t, lotusHandler)
	ctx := context.Background()

	card, err := f.svc.ResolveByName(ctx, "Black Lotus", "")
	if err != nil {
		t.Fatalf("ResolveByName: %v", err)
	}
	if card == nil || card.Block != "lea" {
		t.Fatalf("card = %+v", card)
	}

	// the record is keyed by the resolved block and found again without one
	for _, block := range []string{"", "LEA"} {
		if _, err := f.svc.ResolveByName(ctx, "Black Lotus", block); err != nil {
			t.Fatalf("ResolveByName(%q): %v", block, err)
		}
	}
	if got := f.catalog.Total(); got != 1 {
		t.Errorf("remote calls = %d, want 1", got)
	}
}

func TestResolveByNameBlocklessRecord(t *testing.T) {
	f := newFixture(t, lotusHandler)

	if err := f.store.WriteRecord(f.store.RecordPath("Black Lotus", ""), lotus("")); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	for _, block := range []string{"", "MH2"} {
		card, err := f.svc.ResolveByName(context.Background(), "Black Lotus", block)
		if err != nil {
			t.Fatalf("ResolveByName(%q): %v", block, err)
		}
		if card == nil || card.Block != "" {
			t.Errorf("ResolveByName(%q) = %+v", block, card)
		}
	}
	if got := f.catalog.Total(); got != 0 {
		t.Errorf("remote calls = %d, want 0", got)
	}
}

func TestResolveByNameIgnoresMismatchedRecord(t *testing.T) {
	f := newFixture(t, lotusHandler)

	// a record whose content names another card
	other := domain.CardPayload{ID: lotusID, Name: "Opt", Set: "lea"}
	if err := f.store.WriteRecord(f.store.RecordPath("Black Lotus", "LEA"), other); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	card, err := f.svc.ResolveByName(context.Background(), "Black Lotus", "LEA")
	if err != nil {
		t.Fatalf("ResolveByName: %v", err)
	}
	if card == nil || card.Name != "Black Lotus" {
		t.Fatalf("card = %+v", card)
	}
	if got := f.catalog.Total(); got != 1 {
		t.Errorf("remote calls = %d, want 1", got)
	}
}

func TestResolveByNameNotFound(t *testing.T) {
	f := newFixture(t, lotusHandler)

	card, err := f.svc.ResolveByName(context.Background(), "Nonexistent Card", "")
	if err != nil {
		t.Fatalf("ResolveByName: %v", err)
	}
	if card != nil {
		t.Fatalf("card = %+v, want nil", card)
	}

	entries, err := os.ReadDir(f.store.Paths().DataDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("data dir has %d entries, want 0", len(entries))
	}
}

func TestResolveByNameServerError(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Object: "error", Status: 500, Details: "boom"})
	})

	_, err := f.svc.ResolveByName(context.Background(), "Black Lotus", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Details != "boom" {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}

func TestResolveByNameEmptyName(t *testing.T) {
	f := newFixture(t, lotusHandler)

	if _, err := f.svc.ResolveByName(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected an error for an empty name")
	}
	if f.throttle.calls != 0 {
		t.Errorf("throttle calls = %d, want 0", f.throttle.calls)
	}
}

func imageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/cards/"+delverID || r.URL.Query().Get("format") != "image" || r.URL.Query().Get("version") != "png" {
		notFound(w)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if r.URL.Query().Get("face") == domain.FaceBack {
		fmt.Fprint(w, "back-png")
		return
	}
	fmt.Fprint(w, "front-png")
}

func delver() domain.Card {
	return domain.Card{
		Name:          "Delver of Secrets",
		UUID:          delverID,
		Block:         "isd",
		IsDoubleFaced: true,
		Quantity:      1,
	}
}

func TestFetchImageDoubleFaced(t *testing.T) {
	f := newFixture(t, imageHandler)
	ctx := context.Background()
	card := delver()

	want := map[string]string{domain.FaceFront: "front-png", domain.FaceBack: "back-png"}
	for _, face := range card.Faces() {
		data, err := f.svc.FetchImage(ctx, card, face)
		if err != nil {
			t.Fatalf("FetchImage(%s): %v", face, err)
		}
		if string(data) != want[face] {
			t.Errorf("FetchImage(%s) = %q, want %q", face, data, want[face])
		}
		onDisk, err := os.ReadFile(f.store.ImagePath("Delver of Secrets", "ISD", face))
		if err != nil {
			t.Fatalf("image not cached: %v", err)
		}
		if string(onDisk) != want[face] {
			t.Errorf("cached %s = %q", face, onDisk)
		}
		if face == domain.FaceFront {
			back := f.store.ImagePath("Delver of Secrets", "ISD", domain.FaceBack)
			if _, err := os.Stat(back); !os.IsNotExist(err) {
				t.Errorf("front fetch cached the back face: %v", err)
			}
		}
	}

	for _, face := range card.Faces() {
		data, err := f.svc.FetchImage(ctx, card, face)
		if err != nil {
			t.Fatalf("FetchImage(%s): %v", face, err)
		}
		if string(data) != want[face] {
			t.Errorf("cached FetchImage(%s) = %q", face, data)
		}
	}
	if got := f.catalog.Total(); got != 2 {
		t.Errorf("remote calls = %d, want 2", got)
	}
	if len(f.index.images) != 2 || f.index.images[1].Face != domain.FaceBack {
		t.Errorf("indexed images = %+v", f.index.images)
	}
}

func TestFetchImageBackOnly(t *testing.T) {
	f := newFixture(t, imageHandler)

	data, err := f.svc.FetchImage(context.Background(), delver(), domain.FaceBack)
	if err != nil {
		t.Fatalf("FetchImage: %v", err)
	}
	if string(data) != "back-png" {
		t.Errorf("FetchImage = %q", data)
	}
	if _, err := os.Stat(f.store.ImagePath("Delver of Secrets", "ISD", domain.FaceBack)); err != nil {
		t.Errorf("back face not cached: %v", err)
	}
	if _, err := os.Stat(f.store.ImagePath("Delver of Secrets", "ISD", domain.FaceFront)); !os.IsNotExist(err) {
		t.Errorf("back fetch cached the front face: %v", err)
	}
	if got := f.catalog.Total(); got != 1 {
		t.Errorf("remote calls = %d, want 1", got)
	}
}

func TestFetchImageDefaultsToFront(t *testing.T) {
	f := newFixture(t, imageHandler)

	data, err := f.svc.FetchImage(context.Background(), delver(), "")
	if err != nil {
		t.Fatalf("FetchImage: %v", err)
	}
	if string(data) != "front-png" {
		t.Errorf("FetchImage = %q", data)
	}
}

func TestFetchImageContentTypeMismatch(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"object": "card"})
	})

	_, err := f.svc.FetchImage(context.Background(), delver(), domain.FaceFront)
	var ctErr *ContentTypeError
	if !errors.As(err, &ctErr) {
		t.Fatalf("err = %v, want *ContentTypeError", err)
	}
	if !strings.HasPrefix(ctErr.ContentType, "application/json") {
		t.Errorf("content type = %q", ctErr.ContentType)
	}
	if _, err := os.Stat(f.store.ImagePath("Delver of Secrets", "ISD", domain.FaceFront)); !os.IsNotExist(err) {
		t.Errorf("image was cached after a failed fetch: %v", err)
	}
}

func TestFetchImageRejectsBadInput(t *testing.T) {
	f := newFixture(t, imageHandler)
	ctx := context.Background()

	noID := delver()
	noID.UUID = "not-a-uuid"
	if _, err := f.svc.FetchImage(ctx, noID, domain.FaceFront); err == nil {
		t.Error("expected an error for an invalid id")
	}
	if _, err := f.svc.FetchImage(ctx, delver(), "side"); err == nil {
		t.Error("expected an error for an unknown face")
	}
	if got := f.catalog.Total(); got != 0 {
		t.Errorf("remote calls = %d, want 0", got)
	}
}

func TestSearchFollowsPages(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/search" {
			notFound(w)
			return
		}
		if r.URL.Query().Get("q") != "t:goblin" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Object: "error", Status: 400})
			return
		}
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, http.StatusOK, listResponse{
				Object: "list",
				Data:   []domain.CardPayload{{ID: "c", Name: "Goblin Guide", Set: "zen"}},
			})
			return
		}
		writeJSON(w, http.StatusOK, listResponse{
			Object:   "list",
			HasMore:  true,
			NextPage: "http://" + r.Host + "/cards/search?page=2&q=t%3Agoblin",
			Data: []domain.CardPayload{
				{ID: "a", Name: "Goblin Bushwhacker", Set: "zen"},
				{ID: "b", Name: "Goblin Lackey", Set: "usg"},
			},
		})
	})

	cards, err := f.svc.Search(context.Background(), "t:goblin")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("got %d cards, want 3", len(cards))
	}
	if cards[2].Name != "Goblin Guide" || cards[1].Block != "usg" {
		t.Errorf("unexpected cards %+v", cards)
	}
	if f.throttle.calls != 2 {
		t.Errorf("throttle calls = %d, want 2", f.throttle.calls)
	}

	entries, err := os.ReadDir(f.store.Paths().DataDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("search results were cached: %d entries", len(entries))
	}
}

func TestSearchFailureReturnsEmpty(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Object: "error", Status: 400, Details: "bad query"})
	})

	cards, err := f.svc.Search(context.Background(), "(((")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if cards == nil || len(cards) != 0 {
		t.Errorf("cards = %#v, want an empty slice", cards)
	}
}

func TestSearchTransportError(t *testing.T) {
	f := newFixture(t, lotusHandler)
	f.server.Close()

	if _, err := f.svc.Search(context.Background(), "t:goblin"); err == nil {
		t.Fatal("expected a transport error")
	}
}

func TestCancelledContextStopsBeforeRequest(t *testing.T) {
	f := newFixture(t, lotusHandler)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.ResolveByName(ctx, "Black Lotus", "LEA")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := f.catalog.Total(); got != 0 {
		t.Errorf("remote calls = %d, want 0", got)
	}
}
