// Package scanner inspects a shopping page's markup for garment candidates.
// It is the in-process counterpart of the scanning context that runs inside
// the page; both produce the same candidate shape.
package scanner

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"tryonhub/internal/classify"
	"tryonhub/pkg/models"
)

// MaxCandidates caps a scan result. Larger pages are truncated after the
// area-descending sort.
const MaxCandidates = 12

var imageExtRe = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif|svg)$`)

// Scanner parses page HTML into ranked garment candidates. The viewport
// dimensions stand in for the browser window when a direct image page is
// detected.
type Scanner struct {
	ViewportWidth  int
	ViewportHeight int
}

func New() *Scanner {
	return &Scanner{ViewportWidth: 1280, ViewportHeight: 800}
}

// Scan reads the document at pageURL and returns at most MaxCandidates
// candidates sorted by area descending. A nil error with zero candidates
// means the page yielded nothing; callers own the fallback policy.
func (s *Scanner) Scan(pageURL string, body io.Reader) ([]models.ImageCandidate, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	// A URL that is itself an image needs no DOM walk: the whole page is
	// the candidate.
	if imageExtRe.MatchString(base.Path) {
		return []models.ImageCandidate{{
			Src:    pageURL,
			Width:  s.ViewportWidth,
			Height: s.ViewportHeight,
			Origin: models.OriginDirectImage,
		}}, nil
	}

	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	imgs := collectImgCandidates(doc, base)
	bgs := collectBackgroundCandidates(doc, base, imgs)

	all := append(imgs, bgs...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Area() > all[j].Area()
	})
	if len(all) > MaxCandidates {
		all = all[:MaxCandidates]
	}
	return all, nil
}

func collectImgCandidates(doc *html.Node, base *url.URL) []models.ImageCandidate {
	var out []models.ImageCandidate

	walk(doc, func(n *html.Node) {
		if n.Data != "img" {
			return
		}

		src := resolveRef(base, attr(n, "src"))
		if src == "" {
			return
		}

		w, h := elementDims(n)
		c := models.ImageCandidate{
			Src:     src,
			Width:   w,
			Height:  h,
			Alt:     attr(n, "alt"),
			Origin:  models.OriginImg,
			Element: "img",
		}
		if classify.IsLikelyGarment(c, domContext(n)) {
			out = append(out, c)
		}
	})

	return out
}

func collectBackgroundCandidates(doc *html.Node, base *url.URL, imgs []models.ImageCandidate) []models.ImageCandidate {
	seen := make(map[string]bool, len(imgs))
	for _, c := range imgs {
		seen[c.Src] = true
	}

	sheet := stylesheetBackgrounds(doc)

	var out []models.ImageCandidate
	walk(doc, func(n *html.Node) {
		raw := backgroundImageURL(attr(n, "style"))
		if raw == "" {
			raw = sheetBackground(sheet, n)
		}
		if raw == "" {
			return
		}
		src := resolveRef(base, raw)
		if src == "" || seen[src] {
			return
		}
		seen[src] = true

		w, h := elementDims(n)
		c := models.ImageCandidate{
			Src:     src,
			Width:   w,
			Height:  h,
			Origin:  models.OriginBackgroundImage,
			Element: n.Data,
		}
		if classify.IsLikelyGarment(c, domContext(n)) {
			out = append(out, c)
		}
	})

	return out
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func domContext(n *html.Node) *models.DOMContext {
	ctx := &models.DOMContext{
		ClassName: attr(n, "class"),
		ElementID: attr(n, "id"),
	}
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		ctx.ParentClass = attr(p, "class")
	}
	return ctx
}

// elementDims reads intrinsic width/height attributes first and falls back
// to inline style pixel values, the server-side stand-in for rendered size.
func elementDims(n *html.Node) (int, int) {
	w := parsePx(attr(n, "width"))
	h := parsePx(attr(n, "height"))
	if w > 0 && h > 0 {
		return w, h
	}

	style := attr(n, "style")
	if sw := styleProp(style, "width"); sw != "" && w == 0 {
		w = parsePx(sw)
	}
	if sh := styleProp(style, "height"); sh != "" && h == 0 {
		h = parsePx(sh)
	}
	return w, h
}

func parsePx(s string) int {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// styleProp pulls one property value out of an inline style declaration.
func styleProp(style, prop string) string {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(k), prop) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var bgURLRe = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

func backgroundImageURL(style string) string {
	v := styleProp(style, "background-image")
	if v == "" {
		v = styleProp(style, "background")
	}
	if v == "" || v == "none" {
		return ""
	}
	m := bgURLRe.FindStringSubmatch(v)
	if m == nil {
		return ""
	}
	return m[1]
}

// stylesheetBackgrounds walks the document's <style> elements and collects
// background urls declared against simple class/id selectors. Compound and
// descendant selectors are skipped; matching them would need a full CSS
// engine and product pages overwhelmingly use single-class hooks for hero
// and thumbnail backgrounds. Later declarations win, per the cascade.
func stylesheetBackgrounds(doc *html.Node) map[string]string {
	rules := map[string]string{}

	walk(doc, func(n *html.Node) {
		if n.Data != "style" || n.FirstChild == nil {
			return
		}
		var css strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				css.WriteString(c.Data)
			}
		}
		parseStyleRules(css.String(), rules)
	})

	return rules
}

func parseStyleRules(css string, rules map[string]string) {
	for {
		open := strings.IndexByte(css, '{')
		if open < 0 {
			return
		}
		end := strings.IndexByte(css[open:], '}')
		if end < 0 {
			return
		}

		selectors := css[:open]
		body := css[open+1 : open+end]
		css = css[open+end+1:]

		raw := backgroundImageURL(body)
		if raw == "" {
			continue
		}
		for _, sel := range strings.Split(selectors, ",") {
			sel = strings.TrimSpace(sel)
			if isSimpleSelector(sel) {
				rules[sel] = raw
			}
		}
	}
}

// isSimpleSelector accepts a lone ".class" or "#id" token.
func isSimpleSelector(sel string) bool {
	if len(sel) < 2 || (sel[0] != '.' && sel[0] != '#') {
		return false
	}
	return !strings.ContainsAny(sel[1:], " \t\n.>:#+~[")
}

// sheetBackground resolves an element's background from the collected
// stylesheet rules, id first, then class tokens in order.
func sheetBackground(rules map[string]string, n *html.Node) string {
	if len(rules) == 0 {
		return ""
	}
	if id := attr(n, "id"); id != "" {
		if raw, ok := rules["#"+id]; ok {
			return raw
		}
	}
	for _, cls := range strings.Fields(attr(n, "class")) {
		if raw, ok := rules["."+cls]; ok {
			return raw
		}
	}
	return ""
}

func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "data:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
