package proxy

import (
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// MaxImageBytes caps how much of a remote image the proxy will relay.
const MaxImageBytes = 10 << 20

// Handler relays product images that the extension cannot fetch itself
// because the storefront's CORS policy blocks cross-origin reads.
type Handler struct {
	Client *http.Client
}

func NewHandler() *Handler {
	return &Handler{Client: &http.Client{Timeout: 20 * time.Second}}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/proxy-image", h.proxyImage)
}

var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

func (h *Handler) proxyImage(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("url"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url required"})
		return
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be absolute http(s)"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
		return
	}
	req.Header.Set("User-Agent", browserUserAgents[rand.Intn(len(browserUserAgents))])
	req.Header.Set("Accept", "image/avif,image/webp,image/png,image/*,*/*;q=0.8")
	// some CDNs refuse requests without a same-site referer
	req.Header.Set("Referer", u.Scheme+"://"+u.Host+"/")

	resp, err := h.Client.Do(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream fetch failed"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream status", "status": resp.StatusCode})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Cache-Control", "public, max-age=3600")
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)

	// cap the relay so a hostile url can't stream forever
	_, _ = io.Copy(c.Writer, io.LimitReader(resp.Body, MaxImageBytes))
}
