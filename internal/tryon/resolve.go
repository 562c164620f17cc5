package tryon

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxImageBytes caps how much image data a single ref may resolve to.
const maxImageBytes = 25 << 20

// Resolver turns image references (data URIs or remote URLs) into raw
// bytes. Remote URLs go through the backend's image proxy first; if the
// proxy is down or rejects the URL, a direct fetch is attempted before
// giving up.
type Resolver struct {
	ProxyBaseURL string // backend exposing /api/proxy-image; empty disables the proxy hop
	HTTP         *http.Client
}

func NewResolver(proxyBaseURL string) *Resolver {
	return &Resolver{
		ProxyBaseURL: proxyBaseURL,
		HTTP:         &http.Client{Timeout: 20 * time.Second},
	}
}

// Resolve fetches ref's bytes and reports the image MIME type when known.
func (r *Resolver) Resolve(ctx context.Context, ref string) ([]byte, string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, "", fmt.Errorf("resolve image: empty reference")
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return r.fetchRemote(ctx, ref)
	default:
		return nil, "", fmt.Errorf("resolve image: unsupported reference %q", truncate(ref, 40))
	}
}

func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("decode data uri: missing prefix")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("decode data uri: missing payload")
	}

	mime := strings.TrimSuffix(meta, ";base64")
	if mime == "" {
		mime = "text/plain"
	}

	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode data uri: %w", err)
		}
		return b, mime, nil
	}

	decoded, err := url.QueryUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data uri: %w", err)
	}
	return []byte(decoded), mime, nil
}

func (r *Resolver) fetchRemote(ctx context.Context, imageURL string) ([]byte, string, error) {
	var proxyErr error
	if r.ProxyBaseURL != "" {
		b, mime, err := r.get(ctx, r.ProxyBaseURL+"/api/proxy-image?url="+url.QueryEscape(imageURL))
		if err == nil {
			return b, mime, nil
		}
		proxyErr = err
	}

	b, mime, err := r.get(ctx, imageURL)
	if err == nil {
		return b, mime, nil
	}

	if proxyErr != nil {
		return nil, "", fmt.Errorf("fetch image %s: proxy: %v; direct: %w", truncate(imageURL, 60), proxyErr, err)
	}
	return nil, "", fmt.Errorf("fetch image %s: %w", truncate(imageURL, 60), err)
}

func (r *Resolver) get(ctx context.Context, u string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return b, resp.Header.Get("Content-Type"), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
