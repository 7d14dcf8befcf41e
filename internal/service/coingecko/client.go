package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"catalytics/internal/domain/models"
	drepo "catalytics/internal/domain/repository"
	"catalytics/internal/service/ratelimit"
	"catalytics/pkg/breaker"
	xhttp "catalytics/pkg/http"
	applogger "catalytics/pkg/logger"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client implements MarketData backed by the CoinGecko markets endpoint.
type Client struct {
	http     *xhttp.Client
	baseURL  string
	apiKey   string
	perPage  int
	maxPages int
	limiter  *ratelimit.Limiter
	breaker  *breaker.Breaker
	log      *applogger.Logger
}

var _ drepo.MarketData = (*Client)(nil)

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithPaging sets the page size and a hard cap on pages per category.
func WithPaging(perPage, maxPages int) Option {
	return func(c *Client) {
		if perPage > 0 {
			c.perPage = perPage
		}
		if maxPages > 0 {
			c.maxPages = maxPages
		}
	}
}

func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithBreaker(b *breaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func New(httpClient *xhttp.Client, opts ...Option) *Client {
	c := &Client{
		http:     httpClient,
		baseURL:  DefaultBaseURL,
		perPage:  250,
		maxPages: 40,
		log:      applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchMarkets pages through /coins/markets ordered by market cap until an
// empty page comes back.
func (c *Client) FetchMarkets(ctx context.Context, category models.Category) ([]models.MarketListing, error) {
	marketID := category.MarketID()
	if marketID == "" {
		return nil, fmt.Errorf("%w: %q has no market listing", models.ErrUnknownCategory, category)
	}

	var all []models.MarketListing
	for page := 1; page <= c.maxPages; page++ {
		rows, err := c.fetchPage(ctx, marketID, page)
		if err != nil {
			return nil, fmt.Errorf("coingecko %s page %d: %w", marketID, page, err)
		}
		if len(rows) == 0 {
			break
		}
		all = append(all, rows...)
		c.log.Debug("coingecko page fetched",
			applogger.String("category", marketID),
			applogger.Int("page", page),
			applogger.Int("rows", len(rows)),
		)
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, marketID string, page int) ([]models.MarketListing, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	u = u.JoinPath("coins", "markets")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}

	opts := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    u.String(),
		QueryParams: map[string][]string{
			"vs_currency": {"usd"},
			"category":    {marketID},
			"order":       {"market_cap_desc"},
			"per_page":    {strconv.Itoa(c.perPage)},
			"page":        {strconv.Itoa(page)},
			"sparkline":   {"false"},
		},
		Headers: map[string]string{"Accept": "application/json"},
	}
	if c.apiKey != "" {
		opts.Headers["x-cg-demo-api-key"] = c.apiKey
	}

	return breaker.Do(c.breaker, func() ([]models.MarketListing, error) {
		var rows []models.MarketListing
		if err := c.http.SendAndParse(ctx, opts, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	})
}
