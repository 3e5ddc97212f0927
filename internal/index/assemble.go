package index

import (
	"path"
	"strings"

	"github.com/tannerhall/mathdex/internal/intervals"
	"github.com/tannerhall/mathdex/internal/outline"
	"github.com/tannerhall/mathdex/internal/page"
)

// assemblePage merges sections, blocks, and link occurrences into one page.
// Blocks join the unique section whose span covers them; a block no section
// covers stays out of section membership but remains addressable through the
// resolver. Each link occurrence lands in the page list, the narrowest
// enclosing section, and the narrowest enclosing block — or, when no block
// encloses its line, the nearest block at or after it. Every insertion is
// deduplicated independently.
func assemblePage(docPath string, o *outline.Outline, sections []*page.Section, blocks []*page.Block) *page.Page {
	p := &page.Page{
		Path:      docPath,
		Extension: strings.TrimPrefix(path.Ext(docPath), "."),
		Sections:  sections,
		Links:     []page.Link{},
	}
	if o.LineCount > 0 {
		p.Pos = page.Pos{Start: 0, End: o.LineCount - 1}
	}

	var secStore intervals.Store[*page.Section]
	for _, s := range sections {
		secStore.Set(s.Pos.Start, s)
	}

	for _, b := range blocks {
		if _, sec, ok := secStore.AtOrBelow(b.Pos.Start); ok && sec.Pos.End >= b.Pos.End {
			sec.Blocks = append(sec.Blocks, b)
		}
	}

	var blockStore intervals.Store[*page.Block]
	for _, b := range page.Flatten(blocks) {
		blockStore.Set(b.Pos.Start, b)
	}

	for _, occ := range o.Links {
		l := page.Link{Target: occ.Target, Display: occ.Display}
		p.Links = page.AppendLink(p.Links, l)

		if _, sec, ok := secStore.AtOrBelow(occ.StartLine); ok && sec.Pos.End >= occ.StartLine {
			sec.Links = page.AppendLink(sec.Links, l)
		}
		if b := blockAtOrBelow(&blockStore, occ.StartLine); b != nil {
			b.Links = page.AppendLink(b.Links, l)
		} else if _, b, ok := blockStore.AtOrAbove(occ.StartLine); ok {
			// List-item association: a link on a line no block encloses
			// belongs to the nearest block at or after it.
			b.Links = page.AppendLink(b.Links, l)
		}
	}

	for _, occ := range o.FrontmatterLinks {
		p.Links = page.AppendLink(p.Links, page.Link{
			Target:      occ.Target,
			Display:     occ.Display,
			Frontmatter: true,
		})
	}

	return p
}

// blockAtOrBelow finds the narrowest block enclosing line: the at-or-below
// candidate, walking back past blocks that end before the line (a nested
// equation keys above its enclosing callout).
func blockAtOrBelow(store *intervals.Store[*page.Block], line int) *page.Block {
	for i := store.IndexAtOrBelow(line); i >= 0; i-- {
		_, b := store.At(i)
		if b.Pos.End >= line {
			return b
		}
	}
	return nil
}
