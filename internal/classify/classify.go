// Package classify holds the garment heuristics shared by the page scanner
// and the try-on flow. Pure functions only; the keyword lists and size
// thresholds are contract, not tuning knobs.
package classify

import (
	"strings"

	"tryonhub/pkg/models"
)

// garmentKeywords match clothing terms in image URLs and alt text.
var garmentKeywords = []string{
	"shirt", "dress", "pants", "jeans", "jacket", "coat", "sweater",
	"hoodie", "blouse", "skirt", "shorts", "top", "bottom", "clothing",
	"apparel", "fashion", "wear", "garment", "outfit", "style",
	"product", "item", "cloth", "tshirt", "t-shirt", "polo", "cardigan",
	"blazer", "vest", "tank", "pullover", "sweatshirt", "trouser",
	"chinos", "leggings", "joggers",
}

// productClasses are structural hints: a class or id token carrying one of
// these marks a product image regardless of keyword content.
var productClasses = []string{
	"product", "item", "clothing", "apparel", "garment", "gallery", "thumbnail", "hero",
}

// excludeKeywords mark obvious non-garment imagery (chrome, ads, branding).
var excludeKeywords = []string{
	"logo", "icon", "banner", "header", "footer", "nav", "menu",
	"ad", "advertisement", "avatar", "profile",
}

// IsLikelyGarment decides whether a scanned image plausibly shows a garment.
// dom may be nil when no element context is available (e.g. direct fetches).
//
// Rule order matters: size bounds first, then the structural product-class
// override, then exclusion keywords, then keyword/size acceptance.
func IsLikelyGarment(c models.ImageCandidate, dom *models.DOMContext) bool {
	if c.Width < 100 || c.Height < 100 {
		return false
	}
	if c.Width > 3000 || c.Height > 3000 {
		return false
	}

	if dom != nil && hasProductClass(dom) {
		return true
	}

	src := strings.ToLower(c.Src)
	alt := strings.ToLower(c.Alt)

	if containsAny(src, excludeKeywords) || containsAny(alt, excludeKeywords) {
		return false
	}

	if containsAny(src, garmentKeywords) || containsAny(alt, garmentKeywords) {
		return true
	}

	// generic "probably a product photo" acceptance
	return c.Width >= 200 && c.Height >= 200
}

func hasProductClass(dom *models.DOMContext) bool {
	class := strings.ToLower(dom.ClassName)
	id := strings.ToLower(dom.ElementID)
	parent := strings.ToLower(dom.ParentClass)
	for _, kw := range productClasses {
		if strings.Contains(class, kw) || strings.Contains(id, kw) || strings.Contains(parent, kw) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
