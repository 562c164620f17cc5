package models

// Gallery source modes. Exactly one mode is active gallery-wide at a time.
const (
	ModeOnline   = "online"
	ModeWardrobe = "wardrobe"
	ModeExplorer = "explorer"
	ModeUploaded = "uploaded" // Online variant sourced from local uploads
)

// GalleryItem is the view-layer wrapper over a page candidate, a wardrobe
// entry, an uploaded garment or an explorer search result.
type GalleryItem struct {
	Src         string `json:"src"`
	Title       string `json:"title,omitempty"`
	Price       string `json:"price,omitempty"`
	Store       string `json:"store,omitempty"`
	URL         string `json:"url,omitempty"`
	SourceMode  string `json:"source_mode"`
	IsFavorited bool   `json:"is_favorited"`
}

// ExplorerResult is one hit returned by the unified garment search.
type ExplorerResult struct {
	Src   string `json:"src"`
	Title string `json:"title"`
	Price string `json:"price,omitempty"`
	Store string `json:"store,omitempty"`
	URL   string `json:"url,omitempty"`
}
