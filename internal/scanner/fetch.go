package scanner

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"tryonhub/pkg/models"
)

// A small user-agent rotation; storefronts tend to serve bot-looking
// clients a stripped page or a captcha wall.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Fetcher downloads a page and runs the scanner over it.
type Fetcher struct {
	Client  *http.Client
	Scanner *Scanner
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:  &http.Client{Timeout: 12 * time.Second},
		Scanner: New(),
	}
}

// FetchAndScan retrieves pageURL and returns its garment candidates.
func (f *Fetcher) FetchAndScan(ctx context.Context, pageURL string) ([]models.ImageCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	return f.Scanner.Scan(pageURL, resp.Body)
}
