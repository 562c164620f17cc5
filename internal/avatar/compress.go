package avatar

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"
)

// MaxStoredBytes is the encoded-size budget for a stored avatar. The
// store keeps avatars as base64 data URIs, so the raw bytes have to stay
// well below the row size the rest of the app is comfortable with.
const MaxStoredBytes = 384 << 10

const (
	startQuality = 85
	minQuality   = 35
	qualityStep  = 10

	// never upscale, never shrink below this edge length
	minEdge = 200

	maxRounds = 12
)

// Compress re-encodes img as JPEG under the byte budget. It first walks
// the quality down, then shrinks dimensions by 20% per round and starts
// the quality walk over, mirroring how the original upload path squeezed
// oversized photos.
func Compress(img image.Image, budget int) ([]byte, error) {
	if budget <= 0 {
		budget = MaxStoredBytes
	}

	current := img
	quality := startQuality

	var out []byte
	for round := 0; round < maxRounds; round++ {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, current, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		out = buf.Bytes()

		if len(out) <= budget {
			return out, nil
		}

		if quality-qualityStep >= minQuality {
			quality -= qualityStep
			continue
		}

		bounds := current.Bounds()
		w := bounds.Dx() * 4 / 5
		h := bounds.Dy() * 4 / 5
		if w < minEdge || h < minEdge {
			// out of headroom; hand back the smallest attempt
			return out, nil
		}
		current = resize.Resize(uint(w), uint(h), current, resize.Lanczos3)
		quality = startQuality
	}

	return out, nil
}
