package gamma

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rewired-gh/clobwatch/internal/config"
)

func testClient(apiURL string) *Client {
	return NewClient(config.GammaConfig{
		APIURL:         apiURL,
		Timeout:        5 * time.Second,
		MaxRetries:     3,
		RetryDelayBase: time.Millisecond,
	})
}

const eventsPayload = `[
  {
    "id": "event-1",
    "slug": "dota2-vg-yb1-2026-02-01",
    "title": "VG vs YB1",
    "markets": [
      {
        "id": "market-ou",
        "question": "VG vs YB1: Total kills O/U 50.5?",
        "outcomes": "[\"Over\", \"Under\"]",
        "clobTokenIds": "[\"tok-over\", \"tok-under\"]"
      },
      {
        "id": "market-winner",
        "question": "Will VG beat YB1?",
        "outcomes": "[\"VG Wins\", \"YB1 Wins\"]",
        "clobTokenIds": "[\"tok-vg\", \"tok-yb1\"]"
      }
    ]
  }
]`

func TestResolveSlugPicksWinnerMarketAndAnchor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("path = %s, want /events", r.URL.Path)
		}
		if got := r.URL.Query().Get("slug"); got != "dota2-vg-yb1-2026-02-01" {
			t.Errorf("slug param = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(eventsPayload))
	}))
	defer server.Close()

	res, err := testClient(server.URL).ResolveSlug(context.Background(), "dota2-vg-yb1-2026-02-01")
	if err != nil {
		t.Fatalf("ResolveSlug failed: %v", err)
	}

	// The O/U market is a sub-market; the winner market must be chosen,
	// and the anchor "vg" selects the VG outcome token only.
	if res.Question != "Will VG beat YB1?" {
		t.Errorf("Question = %q", res.Question)
	}
	if len(res.AssetIDs) != 1 || res.AssetIDs[0] != "tok-vg" {
		t.Errorf("AssetIDs = %v, want [tok-vg]", res.AssetIDs)
	}
	if len(res.Tokens) != 2 {
		t.Errorf("Tokens = %v, want both outcomes listed", res.Tokens)
	}
}

func TestResolveSlugAnchorMissFallsBackToAllTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(eventsPayload))
	}))
	defer server.Close()

	// Anchor "zz" matches no outcome: every token of the winner market is
	// returned.
	res, err := testClient(server.URL).ResolveSlug(context.Background(), "dota2-zz-yb1")
	if err != nil {
		t.Fatalf("ResolveSlug failed: %v", err)
	}
	if len(res.AssetIDs) != 2 {
		t.Errorf("AssetIDs = %v, want both tokens", res.AssetIDs)
	}
}

func TestResolveSlugErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()
	c := testClient(server.URL)

	if _, err := c.ResolveSlug(context.Background(), "noslug"); err == nil {
		t.Error("single-part slug should be rejected")
	}
	if _, err := c.ResolveSlug(context.Background(), "some-slug"); err == nil {
		t.Error("empty event list should be an error")
	}
}

func TestSearchMarketsFilters(t *testing.T) {
	payload := `[
	  {"id": "m1", "question": "Will JDG win the LPL final?", "slug": "lpl-jdg-al", "outcomes": "[]", "clobTokenIds": "[]"},
	  {"id": "m2", "question": "Will it rain tomorrow?", "slug": "rain-tomorrow", "outcomes": "[]", "clobTokenIds": "[]"}
	]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("path = %s, want /markets", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit param = %q, want 50", got)
		}
		w.Write([]byte(payload))
	}))
	defer server.Close()

	markets, err := testClient(server.URL).SearchMarkets(context.Background(), "LPL", 50)
	if err != nil {
		t.Fatalf("SearchMarkets failed: %v", err)
	}
	if len(markets) != 1 || markets[0].ID != "m1" {
		t.Errorf("markets = %+v, want only m1", markets)
	}
}

func TestDoRequestRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	if _, err := testClient(server.URL).SearchMarkets(context.Background(), "", 10); err != nil {
		t.Fatalf("SearchMarkets should succeed after retries: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestOutcomeTokensMismatch(t *testing.T) {
	m := Market{Outcomes: `["Yes", "No"]`, ClobTokenIDs: `["only-one"]`}
	if _, err := m.OutcomeTokens(); err == nil {
		t.Error("mismatched outcome/token lengths should error")
	}

	m = Market{Outcomes: `not json`, ClobTokenIDs: `[]`}
	if _, err := m.OutcomeTokens(); err == nil {
		t.Error("malformed outcomes should error")
	}
}
