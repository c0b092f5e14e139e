// Package sanitize turns raw encyclopedic markup into display-safe HTML.
//
// The pipeline order matters: chrome removal first, then a second pass for
// the empty containers that removal leaves behind, then link rewriting on
// the surviving anchors, and finally the bluemonday allowlist as the
// authoritative safety net. Everything before the allowlist is cleanup for
// readability, not a security boundary.
package sanitize

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"infiniwiki/internal/ports"
)

// Selectors for upstream chrome that never belongs in a reader view:
// maintenance boxes, navigation boxes, edit links, hat-notes, infoboxes.
var chromeSelectors = []string{
	".ambox",
	".mbox-small",
	".navbox",
	".metadata",
	".noprint",
	".sistersitebox",
	".dablink",
	".hatnote",
	"[role=note]",
	".mw-empty-elt",
	".mw-editsection",
	".mw-file-description",
	"table[class*=infobox]",
}

// Elements that are meaningful while textually empty.
var mediaElements = map[string]bool{
	"img":    true,
	"video":  true,
	"audio":  true,
	"canvas": true,
	"svg":    true,
	"source": true,
	"track":  true,
}

const mediaSelector = "img, video, audio, canvas, svg"

// Sanitizer normalizes untrusted third-party article markup.
type Sanitizer struct {
	baseURL string
	policy  *bluemonday.Policy
}

var _ ports.Sanitizer = (*Sanitizer)(nil)

// New builds a sanitizer that rewrites internal links against baseURL.
func New(baseURL string) *Sanitizer {
	if baseURL == "" {
		baseURL = "https://en.wikipedia.org"
	}
	return &Sanitizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		policy:  newPolicy(),
	}
}

// Sanitize runs the full pipeline and returns safe markup plus its
// plain-text projection. Malformed input never fails: the parser keeps
// whatever it can make sense of and downstream length validation flags
// unusable content.
func (s *Sanitizer) Sanitize(rawHTML string) (string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", ""
	}

	for _, selector := range chromeSelectors {
		doc.Find(selector).Remove()
	}

	removeEmptyNodes(doc)
	s.rewriteLinks(doc)

	inner, err := doc.Find("body").Html()
	if err != nil {
		return "", ""
	}

	clean := s.policy.Sanitize(inner)
	return clean, extractText(clean)
}

// removeEmptyNodes drops elements with whitespace-only text and no embedded
// media. Runs after chrome removal, which is what creates most of these.
func removeEmptyNodes(doc *goquery.Document) {
	doc.Find("body *").Each(func(_ int, el *goquery.Selection) {
		if mediaElements[goquery.NodeName(el)] {
			return
		}
		if strings.TrimSpace(el.Text()) != "" {
			return
		}
		if el.Find(mediaSelector).Length() > 0 {
			return
		}
		el.Remove()
	})
}

func (s *Sanitizer) rewriteLinks(doc *goquery.Document) {
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		switch {
		case isInternalHref(href):
			s.pointAtUpstream(link, internalTitle(href))
		case strings.HasPrefix(href, "#"):
			// In-feed anchors have no meaningful destination.
			neutralize(link)
		case !strings.Contains(href, "://") && !strings.HasPrefix(href, "mailto:"):
			if title := strings.TrimLeft(href, "/"); title != "" {
				s.pointAtUpstream(link, decodeTitle(title))
			} else {
				neutralize(link)
			}
		}
	})
}

// isInternalHref matches the upstream content-root path, dot-relative
// links, and any other same-origin absolute path.
func isInternalHref(href string) bool {
	if strings.HasPrefix(href, "/wiki/") || strings.HasPrefix(href, "./") {
		return true
	}
	return strings.HasPrefix(href, "/") &&
		!strings.HasPrefix(href, "//") &&
		!strings.Contains(href, "://")
}

func internalTitle(href string) string {
	title := href
	switch {
	case strings.HasPrefix(title, "/wiki/"):
		title = strings.TrimPrefix(title, "/wiki/")
	case strings.HasPrefix(title, "./"):
		title = strings.TrimPrefix(title, "./")
	default:
		title = strings.TrimLeft(title, "/")
	}
	return decodeTitle(title)
}

func decodeTitle(title string) string {
	if decoded, err := url.PathUnescape(title); err == nil {
		return decoded
	}
	return title
}

func (s *Sanitizer) pointAtUpstream(link *goquery.Selection, title string) {
	link.SetAttr("href", s.baseURL+"/wiki/"+url.PathEscape(title))
	link.SetAttr("target", "_blank")
	link.SetAttr("rel", "noopener noreferrer")
}

func neutralize(link *goquery.Selection) {
	link.RemoveAttr("href")
	link.AddClass("inert-link")
}

func extractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}
