// Package resolve answers position queries against one immutable document
// model: rendered surfaces report a line, offset, stable id, or container
// ordinal, and get back the semantic block it names. Every query that cannot
// resolve a concrete block returns nil; nothing here errors or panics, so a
// render pass can silently skip elements it cannot annotate.
package resolve

import (
	"sort"
	"strings"

	"github.com/tannerhall/mathdex/internal/intervals"
	"github.com/tannerhall/mathdex/internal/page"
)

// Index is the query-time view over one page. It is built once at index
// commit and read-only afterwards, so concurrent readers need no locking.
type Index struct {
	page      *page.Page
	byLine    intervals.Store[*page.Block]
	byOffset  intervals.Store[*page.Block]
	byID      map[string]*page.Block
	equations []*page.Block
}

// NewIndex builds the resolver view for a page and its full top-level block
// list (section-less blocks included — they stay globally addressable).
func NewIndex(p *page.Page, blocks []*page.Block) *Index {
	x := &Index{
		page: p,
		byID: make(map[string]*page.Block),
	}
	for _, b := range page.Flatten(blocks) {
		x.byLine.Set(b.Pos.Start, b)
		x.byOffset.Set(b.Offsets.Start, b)
		if b.ID != "" {
			x.byID[b.ID] = b
		}
		if b.Kind == page.KindEquation {
			x.equations = append(x.equations, b)
		}
	}
	sort.Slice(x.equations, func(i, j int) bool {
		return x.equations[i].Pos.Start < x.equations[j].Pos.Start
	})
	return x
}

// Page returns the underlying document model.
func (x *Index) Page() *page.Page {
	return x.page
}

// ByLine returns the narrowest block whose line span contains line. A nested
// equation keys above its enclosing callout, so the backward walk lands on
// the innermost match first.
func (x *Index) ByLine(line int) *page.Block {
	return enclosing(&x.byLine, line, func(b *page.Block) page.Pos { return b.Pos })
}

// ByOffset is the offset-span counterpart of ByLine, kept as a true fallback:
// line and offset can disagree across a long block when the caller only has
// an imprecise cursor estimate.
func (x *Index) ByOffset(off int) *page.Block {
	return enclosing(&x.byOffset, off, func(b *page.Block) page.Pos { return b.Offsets })
}

// ByID looks up a block by its stable identity token.
func (x *Index) ByID(id string) *page.Block {
	return x.byID[id]
}

// EquationsInRange returns the equation blocks whose spans fall inside
// [start, end], in source order. Nested callout equations are included.
func (x *Index) EquationsInRange(start, end int) []*page.Block {
	var out []*page.Block
	for _, eq := range x.equations {
		if eq.Pos.Start >= start && eq.Pos.End <= end {
			out = append(out, eq)
		}
	}
	return out
}

// NthEquationIn selects the nth (0-based) equation inside a container block,
// matching the rendered element's ordinal position among sibling math
// elements. Out-of-range ordinals yield nil, not an error.
func (x *Index) NthEquationIn(container *page.Block, n int) *page.Block {
	if container == nil || n < 0 {
		return nil
	}
	if container.Kind == page.KindEquation {
		if n == 0 {
			return container
		}
		return nil
	}
	eqs := x.EquationsInRange(container.Pos.Start, container.Pos.End)
	if n >= len(eqs) {
		return nil
	}
	return eqs[n]
}

// SectionByTitle returns the section with the given heading title, matching
// exactly first, then case-insensitively.
func (x *Index) SectionByTitle(title string) *page.Section {
	for _, s := range x.page.Sections {
		if s.Title == title {
			return s
		}
	}
	for _, s := range x.page.Sections {
		if strings.EqualFold(s.Title, title) {
			return s
		}
	}
	return nil
}

// PairByIndex zips equation blocks with rendered math elements by index when
// the two counts disagree (the paginated-export degraded mode): the first
// min(len(eqs), rendered) blocks pair up, the remainder stays unresolved.
func PairByIndex(eqs []*page.Block, rendered int) []*page.Block {
	if rendered < 0 {
		rendered = 0
	}
	if rendered > len(eqs) {
		rendered = len(eqs)
	}
	return eqs[:rendered]
}

func enclosing(store *intervals.Store[*page.Block], at int, span func(*page.Block) page.Pos) *page.Block {
	for i := store.IndexAtOrBelow(at); i >= 0; i-- {
		_, b := store.At(i)
		if span(b).End >= at {
			return b
		}
	}
	return nil
}
