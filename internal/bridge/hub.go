// Package bridge is the cross-context messaging boundary between the
// privileged UI side and page-scanning clients, carried over websocket.
// It pairs scan requests with responses by correlation ID and fans
// wardrobe change events out to every connected client.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tryonhub/pkg/models"
)

// ErrNoClients means no page context is connected; callers fall through to
// their next extraction tier immediately instead of waiting out a timeout.
var ErrNoClients = errors.New("bridge: no scanning clients connected")

// DefaultScanWait bounds how long a scan request waits for its response.
const DefaultScanWait = 3 * time.Second

type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	pending  map[string]chan ScanResponse
	ScanWait time.Duration
}

type Stats struct {
	Clients      int `json:"clients"`
	PendingScans int `json:"pending_scans"`
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*websocket.Conn]struct{}),
		pending:  make(map[string]chan ScanResponse),
		ScanWait: DefaultScanWait,
	}
}

func (h *Hub) Add(ws *websocket.Conn) {
	h.mu.Lock()
	h.clients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Clients: len(h.clients), PendingScans: len(h.pending)}
}

// BroadcastJSON sends v to every connected client; dead connections are
// dropped on write failure.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ws := range h.clients {
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.clients, ws)
		}
	}
}

// RequestImages asks connected page contexts for a scan and waits for the
// first response, bounded by ScanWait and ctx. The normalized candidate
// list comes back; an error means this extraction tier is exhausted.
func (h *Hub) RequestImages(ctx context.Context, pageURL string) ([]models.ImageCandidate, error) {
	h.mu.Lock()
	if len(h.clients) == 0 {
		h.mu.Unlock()
		return nil, ErrNoClients
	}

	id := uuid.NewString()
	ch := make(chan ScanResponse, 1)
	h.pending[id] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
	}()

	h.BroadcastJSON(ScanRequest{Type: TypeGetImagesOnPage, ID: id, PageURL: pageURL})

	wait := h.ScanWait
	if wait <= 0 {
		wait = DefaultScanWait
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return NormalizeImages(resp.Payload), nil
	case <-timer.C:
		return nil, fmt.Errorf("bridge: scan request %s timed out", id)
	case <-ctx.Done():
		return nil, fmt.Errorf("bridge: scan request: %w", ctx.Err())
	}
}

// HandleIncoming routes one raw client message. Non-response messages are
// ignored; the bridge is not a general RPC channel.
func (h *Hub) HandleIncoming(raw []byte) {
	var resp ScanResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return
	}
	if resp.Type != TypeImagesOnPage || resp.ID == "" {
		return
	}

	h.mu.Lock()
	ch, ok := h.pending[resp.ID]
	h.mu.Unlock()
	if !ok {
		return
	}

	select {
	case ch <- resp:
	default:
	}
}
