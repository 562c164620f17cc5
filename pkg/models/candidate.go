package models

// Candidate origin kinds. These are wire values exchanged with the page
// scanning context, so they must stay stable.
const (
	OriginImg             = "img"
	OriginBackgroundImage = "background-image"
	OriginDirectImage     = "direct-image"
)

// ImageCandidate is one image found on a shopping page that plausibly shows
// a garment. Candidates are immutable once produced and carry no identity
// across scans; a fresh scan discards the previous set entirely.
type ImageCandidate struct {
	Src     string `json:"src"` // absolute URL or data URI
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Alt     string `json:"alt,omitempty"`
	Origin  string `json:"type"` // OriginImg, OriginBackgroundImage or OriginDirectImage
	Element string `json:"element,omitempty"` // tag name of the source element, debugging aid
}

// Area is the candidate's pixel area, used for ranking.
func (c ImageCandidate) Area() int {
	return c.Width * c.Height
}

// DOMContext carries the structural hints the classifier reads: lowercased
// class and id tokens of the source element and its parent.
type DOMContext struct {
	ClassName   string
	ElementID   string
	ParentClass string
}
