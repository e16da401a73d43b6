// Command resolve-assets looks up CLOB token IDs on the Gamma API, either by
// event slug or by a free-text market search. The printed token IDs feed the
// monitor's --asset-id flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/rewired-gh/clobwatch/internal/config"
	"github.com/rewired-gh/clobwatch/internal/gamma"
)

var (
	slug   = flag.String("slug", "", "Event slug to resolve (e.g. dota2-vg-yb1-2026-02-01)")
	search = flag.String("search", "", "Search term matched against market question, description, and slug")
	limit  = flag.Int("limit", 100, "Maximum number of markets to fetch when searching")
	apiURL = flag.String("api-url", "https://gamma-api.polymarket.com", "Gamma API base URL")
)

func main() {
	flag.Parse()

	if *slug == "" && *search == "" {
		log.Fatal("pass --slug or --search")
	}

	client := gamma.NewClient(config.GammaConfig{
		APIURL:         *apiURL,
		Timeout:        10 * time.Second,
		MaxRetries:     3,
		RetryDelayBase: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *slug != "" {
		resolveSlug(ctx, client)
		return
	}
	searchMarkets(ctx, client)
}

func resolveSlug(ctx context.Context, client *gamma.Client) {
	res, err := client.ResolveSlug(ctx, *slug)
	if err != nil {
		log.Fatalf("Failed to resolve slug: %v", err)
	}

	fmt.Printf("Question: %s\n\n", res.Question)
	for _, ot := range res.Tokens {
		fmt.Printf("  %-20s %s\n", ot.Outcome, ot.TokenID)
	}
	fmt.Println("\nSelected asset IDs:")
	for _, id := range res.AssetIDs {
		fmt.Printf("  %s\n", id)
	}
}

func searchMarkets(ctx context.Context, client *gamma.Client) {
	markets, err := client.SearchMarkets(ctx, *search, *limit)
	if err != nil {
		log.Fatalf("Failed to search markets: %v", err)
	}
	if len(markets) == 0 {
		fmt.Println("No markets matched.")
		return
	}

	for _, m := range markets {
		fmt.Printf("%s\n", m.Question)
		fmt.Printf("  slug: %s  active: %t  closed: %t\n", m.Slug, m.Active, m.Closed)
		tokens, err := m.OutcomeTokens()
		if err != nil {
			fmt.Printf("  (could not decode outcomes: %v)\n\n", err)
			continue
		}
		for _, ot := range tokens {
			fmt.Printf("  %-20s %s\n", ot.Outcome, ot.TokenID)
		}
		fmt.Println()
	}
}
