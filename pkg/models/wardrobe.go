package models

import "time"

// Garment type values stored with wardrobe entries.
const (
	GarmentUpper = "upper"
	GarmentLower = "lower"
)

// WardrobeEntry is one favorited garment persisted for a user.
type WardrobeEntry struct {
	UserID       string    `json:"user_id"`
	GarmentID    string    `json:"garment_id"`
	GarmentImage string    `json:"garment_image"` // data URI
	GarmentType  string    `json:"garment_type"`  // GarmentUpper or GarmentLower
	GarmentURL   string    `json:"garment_url,omitempty"`
	DateAdded    time.Time `json:"date_added"`
}
