// Package outline turns raw markdown source into the lightweight pre-parsed
// outline the indexer consumes: ordered headings, typed block spans, and link
// occurrences. Block structure comes from goldmark's AST; Obsidian-dialect
// constructs (wikilinks, callout headers, block ids, display math) are
// recognized on top of it, since they are not CommonMark.
package outline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// BlockKind tags a raw block with its structural type.
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockMath      BlockKind = "math"
	BlockCallout   BlockKind = "callout"
	BlockParagraph BlockKind = "paragraph"
	BlockList      BlockKind = "list"
	BlockCode      BlockKind = "code"
	BlockQuote     BlockKind = "quote"
	BlockOther     BlockKind = "other"
)

// Heading is one heading record, in source order.
type Heading struct {
	Text      string
	Level     int
	StartLine int
}

// RawBlock is one top-level block span. Line numbers are 0-based inclusive;
// StartOffset/EndOffset delimit the block's source bytes (end exclusive),
// normalized to whole lines.
type RawBlock struct {
	Kind        BlockKind
	StartLine   int
	EndLine     int
	StartOffset int
	EndOffset   int
	BlockID     string
}

// LinkOccurrence is one link found in the source. Frontmatter-sourced
// occurrences carry no position.
type LinkOccurrence struct {
	Target    string
	Display   string
	StartLine int
}

// Outline is the full pre-parsed view of one document.
type Outline struct {
	Headings         []Heading
	Blocks           []RawBlock
	Links            []LinkOccurrence
	FrontmatterLinks []LinkOccurrence
	LineCount        int
}

var (
	wikilinkRe = regexp.MustCompile(`!?\[\[([^\[\]|]+)(?:\|([^\[\]]*))?\]\]`)
	mdLinkRe   = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)
	blockIDRe  = regexp.MustCompile(`(?:^|\s)\^([A-Za-z0-9-]+)\s*$`)
	calloutRe  = regexp.MustCompile(`^>\s*\[!`)
)

// Parse builds the outline for src. Malformed input degrades to a partial
// outline; Parse itself never fails.
func Parse(src []byte) *Outline {
	o := &Outline{}
	if len(src) == 0 {
		return o
	}

	lines := SourceLines(src)
	o.LineCount = len(lines)
	lineStarts := buildLineStarts(string(src))

	bodyLine, bodyOff := parseFrontmatter(lines, lineStarts, o)

	md := goldmark.New()
	body := src[bodyOff:]
	doc := md.Parser().Parse(text.NewReader(body))

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		start, end, ok := nodeSpan(n)
		if !ok {
			continue
		}
		startLine := lineOf(lineStarts, start+bodyOff)
		endLine := lineOf(lineStarts, end-1+bodyOff)

		// Fenced code spans exclude the fence lines; pull them back in.
		if _, fenced := n.(*ast.FencedCodeBlock); fenced {
			if startLine > 0 && strings.HasPrefix(strings.TrimSpace(lines[startLine-1]), "```") {
				startLine--
			}
			if endLine+1 < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[endLine+1]), "```") {
				endLine++
			}
		}

		rb := RawBlock{
			Kind:        classifyNode(n, lines[startLine]),
			StartLine:   startLine,
			EndLine:     endLine,
			StartOffset: lineStarts[startLine],
			EndOffset:   lineEnd(lineStarts, lines, endLine),
		}
		if m := blockIDRe.FindStringSubmatch(lines[endLine]); m != nil {
			rb.BlockID = m[1]
		}
		o.Blocks = append(o.Blocks, rb)

		if h, isHeading := n.(*ast.Heading); isHeading {
			o.Headings = append(o.Headings, Heading{
				Text:      headingText(h, body),
				Level:     h.Level,
				StartLine: startLine,
			})
		}
	}

	scanLinks(lines, bodyLine, o)
	return o
}

func classifyNode(n ast.Node, firstLine string) BlockKind {
	switch n.(type) {
	case *ast.Heading:
		return BlockHeading
	case *ast.Paragraph:
		if strings.HasPrefix(strings.TrimSpace(firstLine), "$$") {
			return BlockMath
		}
		return BlockParagraph
	case *ast.Blockquote:
		if calloutRe.MatchString(firstLine) {
			return BlockCallout
		}
		return BlockQuote
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return BlockCode
	case *ast.List:
		return BlockList
	default:
		return BlockOther
	}
}

// nodeSpan returns the [start, end) byte span of a block node, covering its
// own lines and those of all descendants (containers like blockquotes carry
// no lines of their own).
func nodeSpan(n ast.Node) (int, int, bool) {
	start, end := -1, -1
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		if node.Type() == ast.TypeBlock {
			ls := node.Lines()
			for i := 0; i < ls.Len(); i++ {
				seg := ls.At(i)
				if start < 0 || seg.Start < start {
					start = seg.Start
				}
				if seg.Stop > end {
					end = seg.Stop
				}
			}
		}
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	if start < 0 || end <= start {
		return 0, 0, false
	}
	return start, end, true
}

func headingText(h *ast.Heading, body []byte) string {
	var sb strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Value(body))
		} else if c.Type() == ast.TypeInline {
			// Emphasis, links etc: take their text content.
			for g := c.FirstChild(); g != nil; g = g.NextSibling() {
				if t, ok := g.(*ast.Text); ok {
					sb.Write(t.Value(body))
				}
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// scanLinks collects wikilink and markdown-link occurrences line by line,
// skipping the frontmatter region.
func scanLinks(lines []string, bodyLine int, o *Outline) {
	for i := bodyLine; i < len(lines); i++ {
		for _, m := range wikilinkRe.FindAllStringSubmatch(lines[i], -1) {
			o.Links = append(o.Links, LinkOccurrence{
				Target:    strings.TrimSpace(m[1]),
				Display:   strings.TrimSpace(m[2]),
				StartLine: i,
			})
		}
		for _, m := range mdLinkRe.FindAllStringSubmatch(lines[i], -1) {
			if strings.Contains(m[2], "[[") {
				continue
			}
			o.Links = append(o.Links, LinkOccurrence{
				Target:    m[2],
				Display:   strings.TrimSpace(m[1]),
				StartLine: i,
			})
		}
	}
}

// SourceLines splits src into lines without treating a trailing newline as an
// extra empty line. All line numbers in the outline refer to this split.
func SourceLines(src []byte) []string {
	if len(src) == 0 {
		return nil
	}
	lines := strings.Split(string(src), "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func buildLineStarts(src string) []int {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineOf maps a byte offset to its 0-based line number.
func lineOf(lineStarts []int, off int) int {
	i := sort.SearchInts(lineStarts, off)
	if i < len(lineStarts) && lineStarts[i] == off {
		return i
	}
	return i - 1
}

// lineEnd returns the exclusive byte offset of the end of line n (not
// counting its newline).
func lineEnd(lineStarts []int, lines []string, n int) int {
	return lineStarts[n] + len(lines[n])
}
