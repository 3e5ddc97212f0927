package page

// Pos marks a region's vertical extent as inclusive 0-based line numbers.
// The same shape doubles as a byte-offset span for sub-line precision.
type Pos struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether n falls inside the span.
func (p Pos) Contains(n int) bool {
	return n >= p.Start && n <= p.End
}

// Covers reports whether the span fully encloses other.
func (p Pos) Covers(other Pos) bool {
	return p.Start <= other.Start && p.End >= other.End
}

// Link is a normalized reference target plus optional display text.
type Link struct {
	Target      string `json:"target"`
	Display     string `json:"display,omitempty"`
	Frontmatter bool   `json:"frontmatter,omitempty"`
}

// Same implements structural equality: same resolved target, and for
// non-frontmatter links, same display text.
func (l Link) Same(o Link) bool {
	if l.Target != o.Target {
		return false
	}
	if l.Frontmatter || o.Frontmatter {
		return true
	}
	return l.Display == o.Display
}

// AppendLink adds l to list unless a structurally equal link is already present.
func AppendLink(list []Link, l Link) []Link {
	for _, have := range list {
		if have.Same(l) {
			return list
		}
	}
	return append(list, l)
}

// Kind discriminates block variants. The set is closed; consumers switch
// exhaustively on it.
type Kind string

const (
	KindGeneric        Kind = "generic"
	KindEquation       Kind = "equation"
	KindTheoremCallout Kind = "theorem"
)

// Equation is the payload of an equation block.
type Equation struct {
	// Source is the whitespace-trimmed LaTeX between the display-math markers.
	Source string `json:"source"`
	// ManualTag is the first \tag{...} argument, if any.
	ManualTag string `json:"manual_tag,omitempty"`
	Label     string `json:"label,omitempty"`
	Display   string `json:"display,omitempty"`
}

// TheoremSettings is parsed from a theorem callout's header line.
type TheoremSettings struct {
	Type   string `json:"type"`
	Number string `json:"number,omitempty"`
	Title  string `json:"title,omitempty"`
	// Legacy marks the space-separated compatibility dialect rather than the
	// JSON settings object.
	Legacy bool `json:"legacy,omitempty"`
}

// TheoremCallout is the payload of a theorem-callout block.
type TheoremCallout struct {
	Settings TheoremSettings `json:"settings"`
	Label    string          `json:"label,omitempty"`
	Display  string          `json:"display,omitempty"`
	Main     bool            `json:"main,omitempty"`
	// Equations are the blocks synthesized from display-math regions nested in
	// the callout body. Each also carries its own document-wide ordinal.
	Equations []*Block `json:"equations,omitempty"`
}

// Block is one structurally addressable unit. Exactly one of Equation and
// Theorem is non-nil when Kind says so; both are nil for generic blocks.
type Block struct {
	Kind    Kind `json:"kind"`
	Ordinal int  `json:"ordinal"`
	Pos     Pos  `json:"position"`
	Offsets Pos  `json:"offsets"`
	// ID is the stable identity token, present only when the source block was
	// independently addressable.
	ID    string `json:"id,omitempty"`
	Links []Link `json:"links,omitempty"`

	Equation *Equation       `json:"equation,omitempty"`
	Theorem  *TheoremCallout `json:"theorem,omitempty"`
}

// Flatten expands a top-level block list into every addressable block,
// inserting a theorem callout's nested equations immediately after the
// callout itself (matching ordinal order).
func Flatten(blocks []*Block) []*Block {
	out := make([]*Block, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b)
		if b.Theorem != nil {
			out = append(out, b.Theorem.Equations...)
		}
	}
	return out
}

// Section is a contiguous heading-delimited region. Ordinal 0 is reserved for
// the implicit leading section synthesized when content precedes the first
// heading.
type Section struct {
	Ordinal int      `json:"ordinal"`
	Title   string   `json:"title"`
	Level   int      `json:"level"`
	Pos     Pos      `json:"position"`
	Blocks  []*Block `json:"blocks"`
	Links   []Link   `json:"links,omitempty"`
}

// Page is the immutable document model for one indexed document. It is
// rebuilt wholesale on every re-index and never mutated afterwards.
type Page struct {
	Path      string     `json:"path"`
	Links     []Link     `json:"links"`
	Sections  []*Section `json:"sections"`
	Extension string     `json:"extension"`
	Pos       Pos        `json:"position"`
}
