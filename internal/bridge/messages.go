package bridge

import (
	"encoding/json"

	"tryonhub/pkg/models"
)

// Message types exchanged with page-scanning clients. GET_IMAGES_ON_PAGE is
// the wire name the scanning context has always answered to; it must not
// change.
const (
	TypeGetImagesOnPage = "GET_IMAGES_ON_PAGE"
	TypeImagesOnPage    = "IMAGES_ON_PAGE"
)

// ScanRequest asks a connected page context to scan itself.
type ScanRequest struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	PageURL string `json:"page_url,omitempty"`
}

// ScanResponse carries a scan result back. Payload is deliberately raw:
// scanning clients have historically answered with a bare array, an
// {images: [...]} wrapper, or a keyed object, and all three must keep
// working.
type ScanResponse struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// WardrobeEvent is broadcast to every connected client when a user's
// wardrobe changes.
type WardrobeEvent struct {
	Type      string `json:"type"` // "wardrobe.save" or "wardrobe.remove"
	UserID    string `json:"user_id"`
	GarmentID string `json:"garment_id"`
	At        string `json:"at"`
}

// NormalizeImages converts any of the accepted payload shapes into a flat
// candidate list. Shape branching happens here and nowhere else; downstream
// code only ever sees []ImageCandidate.
func NormalizeImages(raw json.RawMessage) []models.ImageCandidate {
	if len(raw) == 0 {
		return nil
	}

	var list []models.ImageCandidate
	if err := json.Unmarshal(raw, &list); err == nil {
		return compactCandidates(list)
	}

	var wrapped struct {
		Images []models.ImageCandidate `json:"images"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Images != nil {
		return compactCandidates(wrapped.Images)
	}

	var keyed map[string]models.ImageCandidate
	if err := json.Unmarshal(raw, &keyed); err == nil {
		out := make([]models.ImageCandidate, 0, len(keyed))
		for _, c := range keyed {
			if c.Src != "" {
				out = append(out, c)
			}
		}
		return out
	}

	return nil
}

func compactCandidates(in []models.ImageCandidate) []models.ImageCandidate {
	out := in[:0]
	for _, c := range in {
		if c.Src != "" {
			out = append(out, c)
		}
	}
	return out
}
