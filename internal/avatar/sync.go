package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tryonhub/pkg/models"
)

// Syncer mirrors the local avatar to the account backend so a login on
// another machine gets the same avatar back.
type Syncer struct {
	BaseURL string
	Token   string // bearer token from login
	HTTP    *http.Client
}

func NewSyncer(baseURL, token string) *Syncer {
	return &Syncer{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Syncer) Push(ctx context.Context, record *models.AvatarRecord) error {
	payload, err := json.Marshal(map[string]string{
		"avatar_image":      record.RawImage,
		"avatar_bg_removed": record.BgRemovedImage,
	})
	if err != nil {
		return fmt.Errorf("sync avatar: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.BaseURL+"/api/update-avatar", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sync avatar: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("sync avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sync avatar: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
