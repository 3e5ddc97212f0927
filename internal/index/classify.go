package index

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/tannerhall/mathdex/internal/outline"
	"github.com/tannerhall/mathdex/internal/page"
)

var (
	tagRe         = regexp.MustCompile(`\\tag\{([^{}]*)\}`)
	metaPairRe    = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*)\s*:\s*(.+)$`)
	commentLineRe = regexp.MustCompile(`^%%\s*(.*?)\s*%%$`)
	headerRe      = regexp.MustCompile(`^>\s*\[!([A-Za-z]+)(?:\|([^\]]*))?\]\s*(.*)$`)
	trailingIDRe  = regexp.MustCompile(`(?:^|\s)\^[A-Za-z0-9-]+\s*$`)
)

// classifyBlocks runs one left-to-right pass over the outline's block list,
// assigning document-wide ordinals. Headings are skipped (sections own them).
// A theorem callout consumes one ordinal for itself, then each of its nested
// equations consumes the next one before the pass continues.
func classifyBlocks(o *outline.Outline, src []byte) []*page.Block {
	var blocks []*page.Block
	ordinal := 0
	for _, rb := range o.Blocks {
		if rb.Kind == outline.BlockHeading {
			continue
		}
		raw := string(src[rb.StartOffset:rb.EndOffset])

		switch rb.Kind {
		case outline.BlockMath:
			ordinal++
			b := newBlock(page.KindEquation, ordinal, rb)
			b.Equation = buildEquation(raw)
			blocks = append(blocks, b)

		case outline.BlockCallout:
			settings, title, ok := parseTheoremHeader(firstLine(raw))
			if !ok {
				ordinal++
				blocks = append(blocks, newBlock(page.KindGeneric, ordinal, rb))
				continue
			}
			ordinal++
			b := newBlock(page.KindTheoremCallout, ordinal, rb)
			b.Theorem = buildTheorem(raw, rb, settings, title, &ordinal)
			blocks = append(blocks, b)

		default:
			ordinal++
			blocks = append(blocks, newBlock(page.KindGeneric, ordinal, rb))
		}
	}
	return blocks
}

func newBlock(kind page.Kind, ordinal int, rb outline.RawBlock) *page.Block {
	return &page.Block{
		Kind:    kind,
		Ordinal: ordinal,
		Pos:     page.Pos{Start: rb.StartLine, End: rb.EndLine},
		Offsets: page.Pos{Start: rb.StartOffset, End: rb.EndOffset - 1},
		ID:      rb.BlockID,
	}
}

// buildEquation parses one display-math block: trims the `$$` markers, pulls
// the first \tag{...} argument, and reads `key: value` metadata from LaTeX
// comment lines. Later keys overwrite earlier ones within the same block.
func buildEquation(raw string) *page.Equation {
	// The stable-id token sits outside the math markers; drop it first.
	latex := strings.TrimSpace(trailingIDRe.ReplaceAllString(raw, ""))
	latex = strings.TrimPrefix(latex, mathMarker)
	latex = strings.TrimSuffix(latex, mathMarker)
	return newEquation(strings.TrimSpace(latex))
}

// parseCommentMeta scans latex line by line for `%` comments and parses the
// comment content as comma-separated `key: value` pairs.
func parseCommentMeta(latex string) map[string]string {
	meta := map[string]string{}
	for _, line := range strings.Split(latex, "\n") {
		idx := commentStart(line)
		if idx < 0 {
			continue
		}
		content := strings.TrimLeft(line[idx:], "% ")
		for _, part := range strings.Split(content, ",") {
			part = strings.TrimSpace(strings.TrimRight(part, "% "))
			if m := metaPairRe.FindStringSubmatch(part); m != nil {
				meta[m[1]] = strings.TrimSpace(m[2])
			}
		}
	}
	return meta
}

// commentStart returns the index of the first unescaped `%`, or -1.
func commentStart(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] == '%' && (i == 0 || line[i-1] != '\\') {
			return i
		}
	}
	return -1
}

// parseTheoremHeader parses a callout header line. Only `[!math|...]`
// callouts are theorem callouts. A JSON payload is the current settings
// dialect; anything else after the `|` is parsed as legacy space-separated
// tokens (`type key=value ...`).
func parseTheoremHeader(line string) (page.TheoremSettings, string, bool) {
	m := headerRe.FindStringSubmatch(line)
	if m == nil || !strings.EqualFold(m[1], "math") {
		return page.TheoremSettings{}, "", false
	}
	payload := strings.TrimSpace(m[2])
	title := strings.TrimSpace(m[3])

	if strings.HasPrefix(payload, "{") {
		var s page.TheoremSettings
		if err := json.Unmarshal([]byte(payload), &s); err == nil {
			return s, title, true
		}
		// Unparseable JSON falls through to the legacy reader.
	}

	s := page.TheoremSettings{Legacy: true}
	for _, tok := range strings.Fields(payload) {
		if k, v, found := strings.Cut(tok, "="); found {
			switch strings.ToLower(k) {
			case "number":
				s.Number = v
			case "title":
				s.Title = v
			case "type":
				s.Type = v
			}
			continue
		}
		if s.Type == "" {
			s.Type = tok
		}
	}
	if s.Type == "" {
		s.Type = "theorem"
	}
	return s, title, true
}

// buildTheorem assembles a theorem-callout payload: header settings, body
// comment metadata, and the equation blocks synthesized from nested
// display-math regions. Each nested equation takes the next global ordinal.
func buildTheorem(raw string, rb outline.RawBlock, settings page.TheoremSettings, title string, ordinal *int) *page.TheoremCallout {
	if title != "" {
		settings.Title = title
	}
	th := &page.TheoremCallout{Settings: settings}

	body := strings.Split(raw, "\n")
	for _, line := range body[1:] {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, ">")
		line = strings.TrimSpace(line)
		m := commentLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		inner := m[1]
		if inner == "main" {
			th.Main = true
			continue
		}
		if kv := metaPairRe.FindStringSubmatch(inner); kv != nil {
			val := strings.TrimSpace(kv[2])
			switch strings.ToLower(kv[1]) {
			case "label":
				th.Label = val
			case "display":
				th.Display = val
			case "main":
				if b, err := strconv.ParseBool(val); err == nil {
					th.Main = b
				}
			}
		}
	}

	for _, region := range extractCalloutMath(raw, rb.StartLine, rb.StartOffset) {
		*ordinal++
		eq := &page.Block{
			Kind:     page.KindEquation,
			Ordinal:  *ordinal,
			Pos:      page.Pos{Start: region.StartLine, End: region.EndLine},
			Offsets:  page.Pos{Start: region.StartOffset, End: region.EndOffset},
			Equation: newEquation(region.Text),
		}
		th.Equations = append(th.Equations, eq)
	}
	return th
}

// newEquation builds the payload from LaTeX already stripped of its markers
// and quote prefixes.
func newEquation(latex string) *page.Equation {
	eq := &page.Equation{Source: latex}
	if m := tagRe.FindStringSubmatch(latex); m != nil {
		eq.ManualTag = m[1]
	}
	meta := parseCommentMeta(latex)
	eq.Label = meta["label"]
	eq.Display = meta["display"]
	return eq
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
