// Package gamma resolves human-facing market identifiers (event slugs,
// search terms) to CLOB token IDs via the Polymarket Gamma REST API. The
// streaming core never calls this itself; it receives a ready-made list of
// token IDs.
package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/clobwatch/internal/config"
)

// Client provides access to the Gamma API
type Client struct {
	apiURL         string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Gamma client
func NewClient(cfg config.GammaConfig) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelayBase := cfg.RetryDelayBase
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		apiURL: cfg.APIURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// Market represents a market from the Gamma API. The outcomes and
// clobTokenIds fields arrive as JSON-encoded string arrays, not arrays.
type Market struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	Closed       bool   `json:"closed"`
	Outcomes     string `json:"outcomes"`
	ClobTokenIDs string `json:"clobTokenIds"`
}

// Event represents an event (a group of markets) from the Gamma API
type Event struct {
	ID      string   `json:"id"`
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// OutcomeToken pairs one outcome name with its CLOB token ID.
type OutcomeToken struct {
	Outcome string
	TokenID string
}

// OutcomeTokens decodes the JSON-string-encoded outcomes and clobTokenIds
// arrays and zips them together.
func (m *Market) OutcomeTokens() ([]OutcomeToken, error) {
	var outcomes, tokens []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err != nil {
		return nil, fmt.Errorf("failed to decode outcomes: %w", err)
	}
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode clobTokenIds: %w", err)
	}
	if len(outcomes) != len(tokens) {
		return nil, fmt.Errorf("outcome/token count mismatch: %d vs %d", len(outcomes), len(tokens))
	}
	pairs := make([]OutcomeToken, len(outcomes))
	for i := range outcomes {
		pairs[i] = OutcomeToken{Outcome: outcomes[i], TokenID: tokens[i]}
	}
	return pairs, nil
}

// Resolution is the result of resolving a slug to monitorable token IDs.
type Resolution struct {
	Question string
	Tokens   []OutcomeToken
	AssetIDs []string // Token IDs selected for monitoring
}

// subMarketKeywords mark sub-markets (handicaps, totals, first-half lines)
// that should be skipped when looking for the match-winner market.
var subMarketKeywords = []string{"game", "blood", "handicap", "o/u", "spread", "total", "half", "1h", "2h"}

// ResolveSlug resolves an event slug to the CLOB token IDs of its
// match-winner market. Slugs look like "dota2-vg-yb1-2026-02-01"; the second
// hyphen-separated part anchors the outcome to monitor. When no outcome
// matches the anchor, all token IDs are returned.
func (c *Client) ResolveSlug(ctx context.Context, slug string) (*Resolution, error) {
	parts := strings.Split(slug, "-")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid slug format: %s", slug)
	}
	anchor := strings.ToLower(parts[1])

	endpoint := fmt.Sprintf("%s/events?slug=%s", c.apiURL, url.QueryEscape(slug))
	resp, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	defer resp.Body.Close()

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no event found for slug: %s", slug)
	}
	markets := events[0].Markets
	if len(markets) == 0 {
		return nil, fmt.Errorf("no markets found in event %s", slug)
	}

	market := pickWinnerMarket(markets)

	tokens, err := market.OutcomeTokens()
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", market.ID, err)
	}

	res := &Resolution{Question: market.Question, Tokens: tokens}
	for _, ot := range tokens {
		if strings.Contains(strings.ToLower(ot.Outcome), anchor) {
			res.AssetIDs = []string{ot.TokenID}
			return res, nil
		}
	}

	// Anchor not found among outcomes; monitor every outcome.
	for _, ot := range tokens {
		res.AssetIDs = append(res.AssetIDs, ot.TokenID)
	}
	return res, nil
}

// pickWinnerMarket returns the first market whose question carries no
// sub-market keyword, falling back to the first market.
func pickWinnerMarket(markets []Market) Market {
	for _, m := range markets {
		q := strings.ToLower(m.Question)
		subMarket := false
		for _, kw := range subMarketKeywords {
			if strings.Contains(q, kw) {
				subMarket = true
				break
			}
		}
		if !subMarket {
			return m
		}
	}
	return markets[0]
}

// SearchMarkets fetches up to limit markets and filters them by a search
// term matched against question, description, and slug. An empty term
// returns everything.
func (c *Client) SearchMarkets(ctx context.Context, term string, limit int) ([]Market, error) {
	if limit <= 0 {
		limit = 100
	}
	endpoint := fmt.Sprintf("%s/markets?limit=%s", c.apiURL, strconv.Itoa(limit))
	resp, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch markets: %w", err)
	}
	defer resp.Body.Close()

	var markets []Market
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, fmt.Errorf("failed to decode markets: %w", err)
	}

	if term == "" {
		return markets, nil
	}

	needle := strings.ToLower(term)
	var matched []Market
	for _, m := range markets {
		if strings.Contains(strings.ToLower(m.Question), needle) ||
			strings.Contains(strings.ToLower(m.Description), needle) ||
			strings.Contains(strings.ToLower(m.Slug), needle) {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

// doRequest performs an HTTP GET with retry on transport and 5xx errors
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
