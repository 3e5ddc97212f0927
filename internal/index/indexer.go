package index

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/tannerhall/mathdex/internal/outline"
	"github.com/tannerhall/mathdex/internal/page"
	"github.com/tannerhall/mathdex/internal/resolve"
)

// Built is one committed index snapshot: the immutable document model plus
// its resolver view. Readers share snapshots freely; a re-index replaces the
// whole pair.
type Built struct {
	Page     *page.Page
	Resolver *resolve.Index
}

// Build runs one full indexing pass over a source snapshot. Ordinals, spans,
// and metadata are a pure function of the input.
func Build(docPath string, src []byte) *Built {
	o := outline.Parse(src)
	lines := outline.SourceLines(src)
	sections := buildSections(o.Headings, lines, docName(docPath))
	blocks := classifyBlocks(o, src)
	p := assemblePage(docPath, o, sections, blocks)
	return &Built{Page: p, Resolver: resolve.NewIndex(p, blocks)}
}

func docName(docPath string) string {
	return strings.TrimSuffix(path.Base(docPath), path.Ext(docPath))
}

type entry struct {
	gen   uint64
	built *Built
	ready chan struct{}
	done  bool
}

// Indexer owns the per-document index table. Updates supersede: a second
// re-index for the same document invalidates an in-flight build at commit
// time, since only the latest source text matters.
type Indexer struct {
	log *slog.Logger

	mu   sync.Mutex
	docs map[string]*entry
	subs []chan string
}

func NewIndexer(log *slog.Logger) *Indexer {
	return &Indexer{
		log:  log,
		docs: make(map[string]*entry),
	}
}

// Update rebuilds the index for one document from scratch and commits it if
// no newer update started in the meantime.
func (ix *Indexer) Update(docPath string, src []byte) {
	ix.mu.Lock()
	e := ix.ensure(docPath)
	e.gen++
	gen := e.gen
	ix.mu.Unlock()

	built := Build(docPath, src)

	ix.mu.Lock()
	if e.gen != gen {
		ix.mu.Unlock()
		ix.log.Debug("index superseded", "path", docPath)
		return
	}
	e.built = built
	if !e.done {
		close(e.ready)
		e.done = true
	}
	subs := make([]chan string, len(ix.subs))
	copy(subs, ix.subs)
	ix.mu.Unlock()

	ix.log.Info("indexed",
		"path", docPath,
		"sections", len(built.Page.Sections),
		"links", len(built.Page.Links),
	)
	for _, ch := range subs {
		select {
		case ch <- docPath:
		default:
		}
	}
}

// Remove forgets a document (deleted or renamed away). Waiters blocked on it
// are released (they observe a nil page), and an in-flight re-index is
// invalidated rather than committing onto the forgotten entry.
func (ix *Indexer) Remove(docPath string) {
	ix.mu.Lock()
	if e, ok := ix.docs[docPath]; ok {
		e.gen++
		if !e.done {
			close(e.ready)
			e.done = true
		}
		delete(ix.docs, docPath)
	}
	ix.mu.Unlock()
}

// Load returns the committed page for a document, or nil if it has not been
// indexed yet.
func (ix *Indexer) Load(docPath string) *page.Page {
	if b := ix.get(docPath); b != nil {
		return b.Page
	}
	return nil
}

// Resolver returns the committed resolver view, or nil if not yet indexed.
func (ix *Indexer) Resolver(docPath string) *resolve.Index {
	if b := ix.get(docPath); b != nil {
		return b.Resolver
	}
	return nil
}

// WaitFor blocks until the document has been indexed at least once, scoped to
// that one document and cancellable through ctx. A document removed while
// waited on unblocks with a nil page.
func (ix *Indexer) WaitFor(ctx context.Context, docPath string) (*page.Page, error) {
	ix.mu.Lock()
	e := ix.ensure(docPath)
	ready := e.ready
	ix.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-ready:
		return ix.Load(docPath), nil
	}
}

// Subscribe returns a channel carrying the path of each document whose
// re-index completes. Slow subscribers drop notifications rather than block
// the indexer.
func (ix *Indexer) Subscribe() <-chan string {
	ch := make(chan string, 16)
	ix.mu.Lock()
	ix.subs = append(ix.subs, ch)
	ix.mu.Unlock()
	return ch
}

// Paths lists all indexed documents.
func (ix *Indexer) Paths() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make([]string, 0, len(ix.docs))
	for p, e := range ix.docs {
		if e.built != nil {
			out = append(out, p)
		}
	}
	return out
}

// ResolveRelative handles the embed/preview query mode: the anchor expression
// names a target document and optional sub-location, and rel is a line
// offset relative to that base. An anchor naming a block id resolves to that
// block directly, with no line arithmetic. Any failure yields nil.
func (ix *Indexer) ResolveRelative(fromPath, expr string, rel int) *page.Block {
	a := resolve.ParseAnchor(expr)
	target := a.Doc
	if target == "" {
		target = fromPath
	}
	res := ix.lookup(target)
	if res == nil {
		return nil
	}
	if a.BlockID != "" {
		return res.ByID(a.BlockID)
	}
	base := 0
	if a.Heading != "" {
		sec := res.SectionByTitle(a.Heading)
		if sec == nil {
			return nil
		}
		base = sec.Pos.Start
	}
	return res.ByLine(base + rel)
}

// lookup resolves a document reference the way wiki-style links do: exact
// vault-relative path, then with the markdown extension, then a unique
// basename match.
func (ix *Indexer) lookup(ref string) *resolve.Index {
	if b := ix.get(ref); b != nil {
		return b.Resolver
	}
	if b := ix.get(ref + ".md"); b != nil {
		return b.Resolver
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	var found *Built
	for p, e := range ix.docs {
		if e.built == nil {
			continue
		}
		if strings.EqualFold(docName(p), docName(ref)) {
			if found != nil {
				return nil // ambiguous
			}
			found = e.built
		}
	}
	if found == nil {
		return nil
	}
	return found.Resolver
}

func (ix *Indexer) get(docPath string) *Built {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if e, ok := ix.docs[docPath]; ok {
		return e.built
	}
	return nil
}

func (ix *Indexer) ensure(docPath string) *entry {
	e, ok := ix.docs[docPath]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		ix.docs[docPath] = e
	}
	return e
}
