package models

// AvatarRecord holds the user's own photo in its stored variants. A session
// has at most one current avatar; writes are last-write-wins.
type AvatarRecord struct {
	RawImage       string `json:"raw_image"`                  // data URI as uploaded
	BgRemovedImage string `json:"bg_removed_image,omitempty"` // background-removed variant, preferred for try-on
}

// Best returns the variant a try-on should use: the background-removed image
// when present, otherwise the raw upload. Empty when no avatar exists.
func (a AvatarRecord) Best() string {
	if a.BgRemovedImage != "" {
		return a.BgRemovedImage
	}
	return a.RawImage
}
