package classify

import (
	"strings"

	"tryonhub/pkg/models"
)

// Keyword tables for inferring where a garment is worn from a product page
// URL. English and German terms, matching the storefronts the extension
// targets.
var upperTypeKeywords = []string{
	"shirt", "hemd", "t-shirt", "tshirt",
	"top", "oberteil", "blouse", "bluse", "jacket", "jacke",
	"sweater", "pullover", "hoodie", "kapuzenpullover", "cardigan", "strickjacke",
	"polo", "poloshirt", "tank", "tanktop", "vest", "weste",
	"blazer", "sakko", "coat", "mantel", "sweatshirt",
}

var lowerTypeKeywords = []string{
	"trouser", "hose", "pants", "jeans", "shorts",
	"skirt", "rock", "leggings", "chinos", "slacks", "stoffhose",
	"joggers", "jogginghose", "sweatpants", "trackpants", "trainingshose",
	"capri", "caprihose",
}

// DetectGarmentType infers upper/lower from a product page URL. Upper wins
// on ambiguity and is the default when nothing matches.
func DetectGarmentType(pageURL string) string {
	u := strings.ToLower(pageURL)

	for _, kw := range upperTypeKeywords {
		if strings.Contains(u, kw) {
			return models.GarmentUpper
		}
	}
	for _, kw := range lowerTypeKeywords {
		if strings.Contains(u, kw) {
			return models.GarmentLower
		}
	}
	return models.GarmentUpper
}
