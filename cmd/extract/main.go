package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tryonhub/internal/extract"
	"tryonhub/internal/scanner"
	"tryonhub/internal/wardrobe"
)

func main() {
	pageURL := flag.String("url", "", "shopping page URL to scan")
	backend := flag.String("backend", "", "tryonhub backend base URL for the wardrobe fallback tier")
	userID := flag.String("user", "", "user id whose wardrobe backs the fallback tier")
	timeout := flag.Duration("timeout", 30*time.Second, "overall extraction timeout")
	flag.Parse()

	if *pageURL == "" {
		fmt.Fprintln(os.Stderr, "usage: extract -url https://shop.example/product/123 [-backend http://localhost:8080 -user <id>]")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// The bridge tier lives in the api-server where page clients connect;
	// from the command line the stack starts at the direct fetch.
	strategies := []extract.Strategy{
		&extract.DirectStrategy{Fetcher: scanner.NewFetcher()},
	}
	if *backend != "" && *userID != "" {
		col := wardrobe.NewCollection(wardrobe.NewClient(*backend), *userID)
		strategies = append(strategies, &extract.WardrobeStrategy{Source: col})
	}

	driver := extract.NewDriver(nil, strategies...)

	res, err := driver.Run(ctx, *pageURL)
	if err != nil {
		log.Fatalf("extraction failed: %v", err)
	}
	if res.Empty {
		fmt.Println("no garment candidates found")
		return
	}

	if res.Fallback {
		fmt.Printf("page yielded nothing, showing %d wardrobe garments:\n", len(res.Items))
	} else {
		fmt.Printf("strategy %s found %d candidates:\n", res.Strategy, len(res.Items))
	}
	for i, item := range res.Items {
		title := item.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%2d. %s\n    %s\n", i+1, title, item.Src)
	}
}
