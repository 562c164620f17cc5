package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tryonhub/pkg/models"
)

func candidate(src string, w, h int) models.ImageCandidate {
	return models.ImageCandidate{Src: src, Width: w, Height: h, Origin: models.OriginImg}
}

func TestSizeBounds(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want bool
	}{
		{"below min width", 99, 500, false},
		{"below min height", 500, 99, false},
		{"at min", 100, 100, false}, // 100x100 passes bounds but fails the >=200 product heuristic
		{"at min with keyword", 100, 100, true},
		{"above max width", 3001, 500, false},
		{"above max height", 500, 3001, false},
		{"at max", 3000, 3000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "https://shop.example/photo.jpg"
			if tt.name == "at min with keyword" {
				src = "https://shop.example/blue-shirt.jpg"
			}
			got := IsLikelyGarment(candidate(src, tt.w, tt.h), nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProductClassOverridesKeywords(t *testing.T) {
	// neither a garment keyword nor big enough, but the element sits in a
	// product container
	c := candidate("https://cdn.example/x1y2z3.jpg", 150, 150)
	dom := &models.DOMContext{ParentClass: "product-tile featured"}
	assert.True(t, IsLikelyGarment(c, dom))

	// the override also beats exclusion keywords
	c2 := candidate("https://cdn.example/banner-x.jpg", 400, 400)
	dom2 := &models.DOMContext{ClassName: "gallery-img"}
	assert.True(t, IsLikelyGarment(c2, dom2))
}

func TestExclusionBeatsGarmentKeyword(t *testing.T) {
	// "shirt" and "logo" both present; without a product class the
	// exclusion wins even though the image is large
	c := candidate("https://cdn.example/shirt-logo.png", 800, 800)
	assert.False(t, IsLikelyGarment(c, nil))

	// exclusion via alt text
	c2 := candidate("https://cdn.example/img123.png", 800, 800)
	c2.Alt = "site navigation menu"
	assert.False(t, IsLikelyGarment(c2, nil))
}

func TestGarmentKeywordAccepts(t *testing.T) {
	c := candidate("https://shop.example/red-dress-front.webp", 120, 160)
	assert.True(t, IsLikelyGarment(c, nil))

	c2 := candidate("https://cdn.example/8f2a.webp", 120, 160)
	c2.Alt = "Wool sweater, blue"
	assert.True(t, IsLikelyGarment(c2, nil))

	// "navy" trips the "nav" exclusion; alt text is matched as a plain
	// substring on both lists
	c3 := candidate("https://cdn.example/8f2a.webp", 120, 160)
	c3.Alt = "Wool sweater, navy"
	assert.False(t, IsLikelyGarment(c3, nil))
}

func TestGenericSizeAcceptance(t *testing.T) {
	// no keywords either way: accepted iff both dims >= 200
	assert.True(t, IsLikelyGarment(candidate("https://cdn.example/a.jpg", 200, 200), nil))
	assert.False(t, IsLikelyGarment(candidate("https://cdn.example/a.jpg", 199, 400), nil))
	assert.False(t, IsLikelyGarment(candidate("https://cdn.example/a.jpg", 400, 199), nil))
}

func TestDetectGarmentType(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://shop.example/herren/jeans-slim-fit", models.GarmentLower},
		{"https://shop.example/damen/bluse-weiss", models.GarmentUpper},
		{"https://shop.example/p/12345", models.GarmentUpper}, // default
		{"https://shop.example/leggings-black", models.GarmentLower},
		// upper keywords are checked first, so mixed URLs resolve upper
		{"https://shop.example/jacket-and-pants-set", models.GarmentUpper},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectGarmentType(tt.url), tt.url)
	}
}
