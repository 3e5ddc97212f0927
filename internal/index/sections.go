package index

import (
	"strings"

	"github.com/tannerhall/mathdex/internal/outline"
	"github.com/tannerhall/mathdex/internal/page"
)

// buildSections converts the ordered heading list into contiguous,
// non-overlapping section spans covering the document. When non-blank content
// precedes the first heading, an implicit section (ordinal 0) is synthesized
// with the document's own name as its title. A fully blank document produces
// no sections.
func buildSections(headings []outline.Heading, lines []string, docName string) []*page.Section {
	if len(lines) == 0 {
		return nil
	}
	lastLine := len(lines) - 1

	var sections []*page.Section

	if len(headings) == 0 {
		if !anyNonBlank(lines) {
			return nil
		}
		return []*page.Section{{
			Ordinal: 0,
			Title:   docName,
			Level:   1,
			Pos:     page.Pos{Start: 0, End: lastLine},
		}}
	}

	first := headings[0]
	if first.StartLine > 0 && anyNonBlank(lines[:first.StartLine]) {
		sections = append(sections, &page.Section{
			Ordinal: 0,
			Title:   docName,
			Level:   1,
			Pos:     page.Pos{Start: 0, End: first.StartLine - 1},
		})
	}

	for i, h := range headings {
		end := lastLine
		if i+1 < len(headings) {
			end = headings[i+1].StartLine - 1
		}
		sections = append(sections, &page.Section{
			Ordinal: i + 1,
			Title:   h.Text,
			Level:   h.Level,
			Pos:     page.Pos{Start: h.StartLine, End: end},
		})
	}

	return sections
}

func anyNonBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}
