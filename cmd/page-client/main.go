package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tryonhub/internal/bridge"
	"tryonhub/internal/scanner"
)

// page-client connects to the api-server's websocket bridge and answers
// scan requests by fetching and scanning the page itself. It doubles as
// a tail for wardrobe change broadcasts.
func main() {
	addr := flag.String("addr", "ws://127.0.0.1:8080/ws", "bridge websocket URL")
	pretty := flag.Bool("pretty", true, "pretty print broadcast events")
	flag.Parse()

	fetcher := scanner.NewFetcher()

	for {
		if err := run(*addr, *pretty, fetcher); err != nil {
			log.Printf("[page-client] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr string, pretty bool, fetcher *scanner.Fetcher) error {
	ws, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer ws.Close()

	log.Printf("[page-client] connected to %s", addr)

	// gorilla allows one concurrent writer
	var writeMu sync.Mutex

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return err
		}

		var req bridge.ScanRequest
		if json.Unmarshal(raw, &req) == nil && req.Type == bridge.TypeGetImagesOnPage {
			go answerScan(ws, &writeMu, fetcher, req)
			continue
		}

		printEvent(raw, pretty)
	}
}

func answerScan(ws *websocket.Conn, writeMu *sync.Mutex, fetcher *scanner.Fetcher, req bridge.ScanRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	log.Printf("[page-client] scanning %s", req.PageURL)
	candidates, err := fetcher.FetchAndScan(ctx, req.PageURL)
	if err != nil {
		log.Printf("[page-client] scan failed: %v", err)
		candidates = nil
	}

	payload, err := json.Marshal(map[string]any{"images": candidates})
	if err != nil {
		log.Printf("[page-client] encode payload: %v", err)
		return
	}

	resp := bridge.ScanResponse{
		Type:    bridge.TypeImagesOnPage,
		ID:      req.ID,
		Payload: payload,
	}
	b, _ := json.Marshal(resp)
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Printf("[page-client] send response: %v", err)
	}
}

func printEvent(raw []byte, pretty bool) {
	if !pretty {
		fmt.Println(string(raw))
		return
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		fmt.Println(string(raw))
		return
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Println(string(b))
}
