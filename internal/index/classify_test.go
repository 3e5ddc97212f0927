package index

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tannerhall/mathdex/internal/page"
)

const theoremDoc = `# Thm

> [!math|{"type":"theorem","number":"auto"}] Pythagoras
> %% label: thm-pyth %%
> Consider:
> $$
> a^2 + b^2 = c^2
> $$
> then
> $$
> e^x \tag{7}
> $$
> and
> $$
> c > 0 %% display: star %%
> $$

After text. ^after
`

func theoremBlocks(t *testing.T) (*Built, *page.Block) {
	t.Helper()
	b := Build("thm.md", []byte(theoremDoc))
	if len(b.Page.Sections) != 1 {
		t.Fatalf("sections = %d; want 1", len(b.Page.Sections))
	}
	var callout *page.Block
	for _, blk := range b.Page.Sections[0].Blocks {
		if blk.Kind == page.KindTheoremCallout {
			callout = blk
		}
	}
	if callout == nil {
		t.Fatal("no theorem-callout block found")
	}
	return b, callout
}

func TestTheoremCalloutNestedEquations(t *testing.T) {
	_, callout := theoremBlocks(t)

	if callout.Ordinal != 1 {
		t.Errorf("callout ordinal = %d; want 1", callout.Ordinal)
	}
	if callout.Pos.Start != 2 || callout.Pos.End != 15 {
		t.Errorf("callout span = %d-%d; want 2-15", callout.Pos.Start, callout.Pos.End)
	}

	th := callout.Theorem
	if th == nil {
		t.Fatal("nil theorem payload")
	}
	if th.Settings.Type != "theorem" || th.Settings.Number != "auto" || th.Settings.Legacy {
		t.Errorf("settings = %+v; want theorem/auto, not legacy", th.Settings)
	}
	if th.Settings.Title != "Pythagoras" {
		t.Errorf("title = %q; want Pythagoras", th.Settings.Title)
	}
	if th.Label != "thm-pyth" {
		t.Errorf("label = %q; want thm-pyth", th.Label)
	}
	if th.Main {
		t.Error("main should be false")
	}

	if len(th.Equations) != 3 {
		t.Fatalf("nested equations = %d; want 3", len(th.Equations))
	}

	wantSpans := [][2]int{{5, 7}, {9, 11}, {13, 15}}
	for i, eq := range th.Equations {
		if eq.Ordinal != callout.Ordinal+1+i {
			t.Errorf("equation %d ordinal = %d; want %d", i, eq.Ordinal, callout.Ordinal+1+i)
		}
		if eq.Pos.Start != wantSpans[i][0] || eq.Pos.End != wantSpans[i][1] {
			t.Errorf("equation %d span = %d-%d; want %v", i, eq.Pos.Start, eq.Pos.End, wantSpans[i])
		}
		if eq.Kind != page.KindEquation || eq.Equation == nil {
			t.Errorf("equation %d has kind %s", i, eq.Kind)
		}
	}

	if got := th.Equations[0].Equation.Source; got != "a^2 + b^2 = c^2" {
		t.Errorf("equation 0 source = %q", got)
	}
	if got := th.Equations[1].Equation.ManualTag; got != "7" {
		t.Errorf("equation 1 manual tag = %q; want 7", got)
	}
	if got := th.Equations[2].Equation.Display; got != "star" {
		t.Errorf("equation 2 display = %q; want star", got)
	}
}

func TestOrdinalSequenceAroundCallout(t *testing.T) {
	b, callout := theoremBlocks(t)

	// The callout takes ordinal 1, nested equations 2-4, and the trailing
	// paragraph continues at 5.
	var after *page.Block
	for _, blk := range b.Page.Sections[0].Blocks {
		if blk.Kind == page.KindGeneric {
			after = blk
		}
	}
	if after == nil {
		t.Fatal("no trailing generic block")
	}
	if after.Ordinal != 5 {
		t.Errorf("trailing paragraph ordinal = %d; want 5", after.Ordinal)
	}
	if after.ID != "after" {
		t.Errorf("trailing paragraph id = %q; want after", after.ID)
	}
	if callout.Ordinal >= after.Ordinal {
		t.Error("callout should precede the trailing paragraph")
	}
}

func TestTopLevelEquationMetadata(t *testing.T) {
	src := "# E\n\n$$\n\\int_0^1 x\\,dx \\tag{A1}\n% label: int-x, display: Integral\n$$\n"
	b := Build("eq.md", []byte(src))

	var eq *page.Block
	for _, blk := range b.Page.Sections[0].Blocks {
		if blk.Kind == page.KindEquation {
			eq = blk
		}
	}
	if eq == nil {
		t.Fatal("no equation block")
	}
	e := eq.Equation
	if e.ManualTag != "A1" {
		t.Errorf("manual tag = %q; want A1", e.ManualTag)
	}
	if e.Label != "int-x" {
		t.Errorf("label = %q; want int-x", e.Label)
	}
	if e.Display != "Integral" {
		t.Errorf("display = %q; want Integral", e.Display)
	}
	if !strings.HasPrefix(e.Source, "\\int") {
		t.Errorf("source = %q; want markers stripped", e.Source)
	}
}

func TestLegacyTheoremHeader(t *testing.T) {
	s, title, ok := parseTheoremHeader(`> [!math|lemma number=2.1] Key Step`)
	if !ok {
		t.Fatal("header should parse as theorem")
	}
	if !s.Legacy {
		t.Error("want legacy dialect flag")
	}
	if s.Type != "lemma" || s.Number != "2.1" {
		t.Errorf("settings = %+v; want lemma/2.1", s)
	}
	if title != "Key Step" {
		t.Errorf("title = %q; want Key Step", title)
	}

	if _, _, ok := parseTheoremHeader(`> [!note] Just a note`); ok {
		t.Error("non-math callout should not be a theorem")
	}
}

func TestCalloutMainSugar(t *testing.T) {
	src := "> [!math|{\"type\":\"definition\"}]\n> %% main %%\n> Body.\n"
	b := Build("def.md", []byte(src))
	blk := b.Resolver.ByLine(0)
	if blk == nil || blk.Theorem == nil {
		t.Fatal("expected theorem callout at line 0")
	}
	if !blk.Theorem.Main {
		t.Error("bare main line should set main: true")
	}
	if blk.Theorem.Settings.Type != "definition" {
		t.Errorf("type = %q; want definition", blk.Theorem.Settings.Type)
	}
}

func TestExtractCalloutMathUnterminated(t *testing.T) {
	raw := "> [!math|{\"type\":\"remark\"}]\n> $$\n> x = 1\n> $$\n> $$\n> dangling"
	regions := extractCalloutMath(raw, 10, 100)
	if len(regions) != 1 {
		t.Fatalf("regions = %d; want 1 (unterminated opener dropped)", len(regions))
	}
	r := regions[0]
	if r.StartLine != 11 || r.EndLine != 13 {
		t.Errorf("region span = %d-%d; want 11-13", r.StartLine, r.EndLine)
	}
	if r.Text != "x = 1" {
		t.Errorf("region text = %q; want x = 1", r.Text)
	}
	if r.StartOffset <= 100 || r.EndOffset <= r.StartOffset {
		t.Errorf("region offsets = %d-%d; want absolute offsets past 100", r.StartOffset, r.EndOffset)
	}
}

const frontmatterDoc = `---
alpha: "[[A]]"
beta: "[[B]]"
gamma: "[[C]]"
delta: "[[D]]"
---
body
`

func TestBuildDeterministic(t *testing.T) {
	for _, src := range []string{theoremDoc, frontmatterDoc} {
		a := Build("doc.md", []byte(src))
		b := Build("doc.md", []byte(src))
		if !reflect.DeepEqual(a.Page, b.Page) {
			t.Errorf("two builds of %.20q differ", src)
		}
	}

	// Frontmatter links come out in document order, not map order.
	p := Build("fm.md", []byte(frontmatterDoc)).Page
	want := []string{"A", "B", "C", "D"}
	if len(p.Links) != len(want) {
		t.Fatalf("links = %+v; want %d frontmatter links", p.Links, len(want))
	}
	for i, l := range p.Links {
		if l.Target != want[i] || !l.Frontmatter {
			t.Errorf("link %d = %+v; want frontmatter %q", i, l, want[i])
		}
	}
}
