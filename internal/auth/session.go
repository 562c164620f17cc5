package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tryonhub/pkg/storage"
)

// SessionUser is the user half of a login response.
type SessionUser struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Profile  json.RawMessage `json:"profile"`
}

// Session is the client-side login state. A successful login persists the
// signed-in flag and the user's id, email and profile so the rest of the
// client (wardrobe fallback, avatar sync) can read them without holding a
// reference to the session itself.
type Session struct {
	BaseURL string
	Store   storage.Store
	HTTP    *http.Client

	token string
}

func NewSession(baseURL string, store storage.Store) *Session {
	return &Session{
		BaseURL: baseURL,
		Store:   store,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Token returns the bearer token of the current login, empty when signed out.
func (s *Session) Token() string { return s.token }

// Login authenticates against the backend and persists the session state.
// Nothing is written on failure.
func (s *Session) Login(ctx context.Context, email, password string) (*SessionUser, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("login: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("login: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("login: status %d: %s", resp.StatusCode, string(b))
	}

	var out struct {
		User  SessionUser `json:"user"`
		Token string      `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("login: decode: %w", err)
	}
	if out.Token == "" || out.User.ID == "" {
		return nil, fmt.Errorf("login: backend returned no session")
	}

	if err := s.persist(ctx, &out.User); err != nil {
		return nil, err
	}
	s.token = out.Token
	return &out.User, nil
}

func (s *Session) persist(ctx context.Context, u *SessionUser) error {
	if err := s.Store.SetString(ctx, storage.KeySignedIn, "true"); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := s.Store.SetString(ctx, storage.KeyUserID, u.ID); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := s.Store.SetString(ctx, storage.KeyUserEmail, u.Email); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if len(u.Profile) > 0 {
		if err := s.Store.SetString(ctx, storage.KeyUserProfile, string(u.Profile)); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
	}
	return nil
}

// Logout tells the backend to revoke the token, then clears the local
// session state. Local state is cleared even if the backend call fails so
// the client never stays signed in against a dead backend.
func (s *Session) Logout(ctx context.Context) error {
	var backendErr error
	if s.token != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/logout", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+s.token)
			resp, err := s.HTTP.Do(req)
			if err != nil {
				backendErr = fmt.Errorf("logout: %w", err)
			} else {
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					backendErr = fmt.Errorf("logout: status %d", resp.StatusCode)
				}
			}
		}
	}

	s.token = ""
	for _, key := range []string{storage.KeySignedIn, storage.KeyUserID, storage.KeyUserEmail, storage.KeyUserProfile} {
		if err := s.Store.Remove(ctx, key); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	return backendErr
}

// SignedIn reports whether a persisted session exists.
func (s *Session) SignedIn(ctx context.Context) bool {
	v, err := s.Store.GetString(ctx, storage.KeySignedIn)
	return err == nil && v == "true"
}

// UserID returns the persisted user id, empty when signed out.
func (s *Session) UserID(ctx context.Context) string {
	v, _ := s.Store.GetString(ctx, storage.KeyUserID)
	return v
}
