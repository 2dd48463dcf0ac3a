// Package decklist pulls card list lines out of web pages.
package decklist

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gocolly/colly"
	"github.com/gocolly/colly/extensions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/scrycache/internal/domain"
)

// DefaultSelector matches the elements deck sites usually put plain lists in
const DefaultSelector = "pre, textarea"

type Service interface {
	Scrape(ctx context.Context, pageURL, selector string) ([]string, error)
}

// contextTransport ties every request the collector sends to ctx, so a
// cancel also stops a fetch that is already in flight.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

type service struct {
	log    zerolog.Logger
	config *domain.Config
}

func NewService(log zerolog.Logger, config *domain.Config) Service {
	return &service{
		log:    log.With().Str("module", "decklist").Logger(),
		config: config,
	}
}

// Scrape visits pageURL and returns the non-blank text lines of every element
// matching selector, in document order.
func (s *service) Scrape(ctx context.Context, pageURL, selector string) ([]string, error) {
	if selector == "" {
		selector = DefaultSelector
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid url %q", pageURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported url scheme %q", u.Scheme)
	}

	cc := colly.NewCollector(
		colly.AllowedDomains(u.Hostname(), u.Host),
		colly.MaxDepth(1),
	)
	cc.WithTransport(&contextTransport{ctx: ctx, base: http.DefaultTransport})
	extensions.RandomUserAgent(cc)

	if err := cc.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       s.config.RequestDelay,
		RandomDelay: s.config.RequestDelay,
		Parallelism: 1,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to set scrape limits")
	}

	var (
		lines     []string
		scrapeErr error
	)

	cc.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		s.log.Debug().Str("url", r.URL.String()).Msg("visiting")
	})

	cc.OnHTML(selector, func(e *colly.HTMLElement) {
		for _, line := range strings.Split(e.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			lines = append(lines, line)
		}
	})

	cc.OnError(func(r *colly.Response, err error) {
		s.log.Warn().Err(err).Int("status", r.StatusCode).Str("url", r.Request.URL.String()).Msg("scrape failed")
		scrapeErr = errors.Wrapf(err, "failed to scrape %s (status %d)", r.Request.URL, r.StatusCode)
	})

	if err := cc.Visit(u.String()); err != nil && scrapeErr == nil {
		scrapeErr = errors.Wrapf(err, "failed to visit %s", u)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scrapeErr != nil {
		return nil, scrapeErr
	}

	s.log.Debug().Str("url", pageURL).Int("lines", len(lines)).Msg("scraped deck list")
	return lines, nil
}
