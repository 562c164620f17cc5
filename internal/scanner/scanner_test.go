package scanner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryonhub/pkg/models"
)

func scan(t *testing.T, pageURL, doc string) []models.ImageCandidate {
	t.Helper()
	out, err := New().Scan(pageURL, strings.NewReader(doc))
	require.NoError(t, err)
	return out
}

func TestDirectImagePage(t *testing.T) {
	s := New()
	out, err := s.Scan("https://photos.example/photos/dress.png", strings.NewReader(""))
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, models.OriginDirectImage, out[0].Origin)
	assert.Equal(t, "https://photos.example/photos/dress.png", out[0].Src)
	assert.Equal(t, s.ViewportWidth, out[0].Width)
	assert.Equal(t, s.ViewportHeight, out[0].Height)
}

func TestDirectImageExtensionIsCaseInsensitive(t *testing.T) {
	out := scan(t, "https://photos.example/a/b/COAT.JPEG", "")
	require.Len(t, out, 1)
	assert.Equal(t, models.OriginDirectImage, out[0].Origin)
}

func TestImgElements(t *testing.T) {
	doc := `
		<html><body>
			<img src="/img/red-dress.jpg" width="600" height="800" alt="Red dress">
			<img src="/img/site-logo.png" width="300" height="300">
			<img src="/img/tiny.jpg" width="40" height="40">
		</body></html>`

	out := scan(t, "https://shop.example/collection", doc)
	require.Len(t, out, 1)
	assert.Equal(t, "https://shop.example/img/red-dress.jpg", out[0].Src)
	assert.Equal(t, models.OriginImg, out[0].Origin)
	assert.Equal(t, "Red dress", out[0].Alt)
}

func TestBackgroundImages(t *testing.T) {
	doc := `
		<html><body>
			<div class="product-card" style="background-image: url('/img/shirt-bg.jpg'); width: 400px; height: 500px"></div>
			<div style="background-image: url(/img/shirt-bg.jpg); width: 400px; height: 500px"></div>
			<img src="/img/shirt-bg.jpg" width="400" height="500">
		</body></html>`

	out := scan(t, "https://shop.example/p/shirt", doc)

	// the background URL duplicates the img src, so it appears exactly once
	require.Len(t, out, 1)
	assert.Equal(t, models.OriginImg, out[0].Origin)
}

func TestBackgroundImageAlone(t *testing.T) {
	doc := `
		<html><body>
			<div class="hero-banner" style="background-image: url('https://cdn.example/jeans-hero.jpg'); width: 900px; height: 600px"></div>
		</body></html>`

	out := scan(t, "https://shop.example/", doc)
	require.Len(t, out, 1)
	assert.Equal(t, models.OriginBackgroundImage, out[0].Origin)
	assert.Equal(t, "https://cdn.example/jeans-hero.jpg", out[0].Src)
	assert.Equal(t, 900, out[0].Width)
	assert.Equal(t, 600, out[0].Height)
}

func TestStylesheetBackgroundImages(t *testing.T) {
	doc := `
		<html><head><style>
			.hero-banner { background-image: url('https://cdn.example/dress-hero.jpg'); }
			#spotlight { background: #fff url(/img/coat-spotlight.jpg) no-repeat; }
			.hero-banner .inner { background-image: url('/img/skip-descendant.jpg'); }
		</style></head>
		<body>
			<div class="hero-banner" style="width: 900px; height: 600px"></div>
			<div id="spotlight" style="width: 500px; height: 700px"></div>
			<div class="inner" style="width: 400px; height: 400px"></div>
		</body></html>`

	out := scan(t, "https://shop.example/", doc)
	require.Len(t, out, 2)

	assert.Equal(t, "https://cdn.example/dress-hero.jpg", out[0].Src)
	assert.Equal(t, models.OriginBackgroundImage, out[0].Origin)
	assert.Equal(t, "https://shop.example/img/coat-spotlight.jpg", out[1].Src)
}

func TestInlineStyleOverridesStylesheet(t *testing.T) {
	doc := `
		<html><head><style>
			.product-card { background-image: url('/img/sheet-shirt.jpg'); }
		</style></head>
		<body>
			<div class="product-card" style="background-image: url('/img/inline-shirt.jpg'); width: 400px; height: 500px"></div>
		</body></html>`

	out := scan(t, "https://shop.example/p/shirt", doc)
	require.Len(t, out, 1)
	assert.Equal(t, "https://shop.example/img/inline-shirt.jpg", out[0].Src)
}

func TestStylesheetBackgroundDedupedAgainstImg(t *testing.T) {
	doc := `
		<html><head><style>
			.product-card { background-image: url('/img/jeans.jpg'); }
		</style></head>
		<body>
			<div class="product-card" style="width: 400px; height: 500px"></div>
			<img src="/img/jeans.jpg" width="400" height="500">
		</body></html>`

	out := scan(t, "https://shop.example/p/jeans", doc)
	require.Len(t, out, 1)
	assert.Equal(t, models.OriginImg, out[0].Origin)
}

func TestSortedByAreaDescendingAndCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= 20; i++ {
		size := 200 + i*10
		fmt.Fprintf(&b, `<img src="/img/dress-%d.jpg" width="%d" height="%d">`, i, size, size)
	}
	b.WriteString("</body></html>")

	out := scan(t, "https://shop.example/sale", b.String())
	require.Len(t, out, MaxCandidates)

	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Area(), out[i].Area())
	}
	// the biggest image made the cut
	assert.Equal(t, "https://shop.example/img/dress-20.jpg", out[0].Src)
}

func TestProductClassKeepsSmallUnkeywordedImage(t *testing.T) {
	doc := `
		<html><body>
			<div class="product-grid">
				<img src="/i/4af91c.jpg" width="150" height="150">
			</div>
			<img src="/i/9bc2d0.jpg" width="150" height="150">
		</body></html>`

	out := scan(t, "https://shop.example/x", doc)
	require.Len(t, out, 1)
	assert.Equal(t, "https://shop.example/i/4af91c.jpg", out[0].Src)
}

func TestDimensionlessImagesAreRejected(t *testing.T) {
	doc := `<html><body><img src="/img/dress.jpg"></body></html>`
	out := scan(t, "https://shop.example/x", doc)
	assert.Empty(t, out)
}

func TestStyleDimensionsFallback(t *testing.T) {
	doc := `<html><body><img src="/img/coat.jpg" style="width: 640px; height: 480px"></body></html>`
	out := scan(t, "https://shop.example/x", doc)
	require.Len(t, out, 1)
	assert.Equal(t, 640, out[0].Width)
	assert.Equal(t, 480, out[0].Height)
}
