package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	targetBlank   = regexp.MustCompile(`^_blank$`)
	noOpenerRel   = regexp.MustCompile(`^noopener noreferrer$`)
	inertLinkOnly = regexp.MustCompile(`^inert-link$`)
)

// newPolicy builds the strict allowlist applied as the last pipeline step.
// Only structural and phrasing content survives; scripts, styles, frames,
// forms, and event handlers never do.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowStandardURLs()
	p.AllowStandardAttributes()
	p.AllowLists()
	p.AllowTables()
	p.AllowImages()

	p.AllowElements(
		"a", "abbr", "article", "aside", "b", "bdi", "blockquote", "br",
		"cite", "code", "dd", "dfn", "div", "dl", "dt", "em", "figcaption",
		"figure", "h1", "h2", "h3", "h4", "h5", "h6", "hr", "i", "kbd",
		"mark", "p", "pre", "q", "s", "section", "small", "span", "strong",
		"sub", "sup", "time", "u", "var", "wbr",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(targetBlank).OnElements("a")
	p.AllowAttrs("rel").Matching(noOpenerRel).OnElements("a")
	p.AllowAttrs("class").Matching(inertLinkOnly).OnElements("a")

	return p
}
