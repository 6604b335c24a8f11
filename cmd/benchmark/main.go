package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/olgasafonova/wikia-mcp-server/wikia"
)

func newClient() (*wikia.Client, error) {
	config, err := wikia.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return wikia.NewClient(*config, logger), nil
}

// measureCachePerformance compares first (network) and repeated (memoized) calls
func measureCachePerformance(client *wikia.Client, subWiki, query, title string) {
	ctx := context.Background()

	fmt.Println("=== Cache Performance Test ===")
	fmt.Println()

	fmt.Println("1. Search Cache Test:")
	start := time.Now()
	if _, err := client.Search(ctx, subWiki, query, 10); err != nil {
		fmt.Printf("   Error: %v\n", err)
		return
	}
	firstCall := time.Since(start)
	fmt.Printf("   First call (network):  %v\n", firstCall)

	start = time.Now()
	_, _ = client.Search(ctx, subWiki, query, 10)
	secondCall := time.Since(start)
	fmt.Printf("   Second call (cached):  %v\n", secondCall)
	fmt.Printf("   Speedup: %.0fx faster\n", float64(firstCall)/float64(secondCall))
	fmt.Println()

	fmt.Println("2. Summary Cache Test (resolution + abstract):")
	start = time.Now()
	if _, err := client.Summary(ctx, subWiki, title, 500, true); err != nil {
		fmt.Printf("   Error: %v\n", err)
		return
	}
	firstCall = time.Since(start)
	fmt.Printf("   First call (network):  %v\n", firstCall)

	start = time.Now()
	_, _ = client.Summary(ctx, subWiki, title, 500, true)
	secondCall = time.Since(start)
	fmt.Printf("   Second call (cached):  %v\n", secondCall)
	fmt.Printf("   Cached entries: %d\n", client.Cache().Len())
	fmt.Println()

	fmt.Println("3. Language switch clears the cache:")
	lang := client.Language()
	client.SetLanguage(lang)
	fmt.Printf("   Cached entries after SetLanguage(%q): %d\n", lang, client.Cache().Len())
	fmt.Println()
}

// measureRateLimiting shows the spacing the rate gate adds to sequential calls
func measureRateLimiting(client *wikia.Client, subWiki string) {
	ctx := context.Background()
	const calls = 5

	fmt.Println("=== Rate Limiting ===")
	fmt.Println()

	for _, enabled := range []bool{false, true} {
		client.SetRateLimiting(enabled, 200*time.Millisecond)
		start := time.Now()
		for i := 0; i < calls; i++ {
			// Random is never memoized, so every call reaches the wiki.
			if _, err := client.Random(ctx, subWiki, 1); err != nil {
				fmt.Printf("   Error: %v\n", err)
				return
			}
		}
		fmt.Printf("4. %d Random calls, rate limit %-5v: %v\n", calls, enabled, time.Since(start))
	}
	client.SetRateLimiting(false, 0)
	fmt.Println()
}

// measurePagination walks the article listing through continuation
func measurePagination(client *wikia.Client, subWiki string) {
	ctx := context.Background()
	const want = 200

	fmt.Println("=== Continuation ===")
	fmt.Println()

	for _, batch := range []int{10, 50, 200} {
		cur := client.ListPages(subWiki, "", batch)
		n := 0
		start := time.Now()
		for n < want && cur.Next(ctx) {
			n++
		}
		if err := cur.Err(); err != nil {
			fmt.Printf("   Error: %v\n", err)
			return
		}
		fmt.Printf("5. %d pages, batch %-3d: %d requests in %v\n", n, batch, cur.Requests(), time.Since(start))
	}
	fmt.Println()
}

func main() {
	subWiki, query, title := "starwars", "yoda", "Yoda"
	if len(os.Args) > 1 {
		subWiki = os.Args[1]
	}
	if len(os.Args) > 3 {
		query, title = os.Args[2], os.Args[3]
	}

	fmt.Println("Wikia MCP Server - Performance Measurements")
	fmt.Println("===========================================")
	fmt.Printf("Sub-wiki: %s\n\n", subWiki)

	client, err := newClient()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	measureCachePerformance(client, subWiki, query, title)
	measureRateLimiting(client, subWiki)
	measurePagination(client, subWiki)

	fmt.Println("=== Summary ===")
	fmt.Println()
	fmt.Println("• Caching: repeated searches and summaries are served from memory until the language changes")
	fmt.Println("• Rate limiting: optional minimum spacing between requests")
	fmt.Println("• Continuation: larger batches mean fewer round trips")
}
