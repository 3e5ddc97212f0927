package resolve

import "strings"

// Anchor is a parsed reference expression: a target document plus an optional
// sub-location (heading or block id). An empty Doc means "the same document".
type Anchor struct {
	Doc     string
	Heading string
	BlockID string
}

// ParseAnchor reads the reference forms used by embeds and previews:
// `Doc`, `Doc#Heading`, `Doc#^blockid`, with or without surrounding
// `[[...]]` / `![[...]]` brackets and a trailing `|display` alias.
func ParseAnchor(expr string) Anchor {
	expr = strings.TrimSpace(expr)
	expr = strings.TrimPrefix(expr, "!")
	expr = strings.TrimPrefix(expr, "[[")
	expr = strings.TrimSuffix(expr, "]]")
	if i := strings.IndexByte(expr, '|'); i >= 0 {
		expr = expr[:i]
	}

	var a Anchor
	doc, sub, found := strings.Cut(expr, "#")
	a.Doc = strings.TrimSpace(doc)
	if !found {
		return a
	}
	sub = strings.TrimSpace(sub)
	if rest, ok := strings.CutPrefix(sub, "^"); ok {
		a.BlockID = rest
	} else {
		a.Heading = sub
	}
	return a
}
