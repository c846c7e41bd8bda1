package hint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rbergm/diploma-thesis/internal/selector"
)

// Comment delimiters shared by all renderers.
const (
	CommentOpen  = "/*+"
	CommentClose = "*/"
)

// Options control serialization.
type Options struct {
	// StripEmpty suppresses the comment entirely when there are no directives.
	StripEmpty bool

	// Renderer formats directives. Nil selects PgHintPlan.
	Renderer Renderer
}

// Renderer turns directives into hint lines. Implementations must be
// deterministic: equal input yields equal lines in equal order.
type Renderer interface {
	Name() string
	Lines(ds []selector.Directive) []string
}

// Serialize renders h as a single hint comment, one line per hint:
//
//	/*+
//	NestLoop(ct mc)
//	IndexScan(mc)
//	*/
//
// With opts.StripEmpty and no directives the result is "". Without
// StripEmpty an empty-but-present marker "/*+\n*/" is returned.
func Serialize(h HintedQuery, opts Options) string {
	if h.Empty() && opts.StripEmpty {
		return ""
	}

	r := opts.Renderer
	if r == nil {
		r = PgHintPlan{}
	}

	var sb strings.Builder
	sb.WriteString(CommentOpen)
	sb.WriteByte('\n')
	for _, line := range r.Lines(h.directives) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(CommentClose)
	return sb.String()
}

// PgHintPlan renders pg_hint_plan directives. Every directive yields
// NestLoop(<probe> <index>) followed by IndexScan(<index>); the IndexScan
// token marks the index-scanned table explicitly. Lines already emitted
// are not repeated.
type PgHintPlan struct{}

func (PgHintPlan) Name() string { return "pg_hint_plan" }

func (PgHintPlan) Lines(ds []selector.Directive) []string {
	var lines dedupLines
	for _, d := range ds {
		lines.add(fmt.Sprintf("NestLoop(%s %s)", d.Probe.Identity(), d.IndexScan.Identity()))
		lines.add(fmt.Sprintf("IndexScan(%s)", d.IndexScan.Identity()))
	}
	return lines.out
}

// Positional renders only NestLoop(<probe> <index>); the index-scanned
// table is always the second argument.
type Positional struct{}

func (Positional) Name() string { return "positional" }

func (Positional) Lines(ds []selector.Directive) []string {
	var lines dedupLines
	for _, d := range ds {
		lines.add(fmt.Sprintf("NestLoop(%s %s)", d.Probe.Identity(), d.IndexScan.Identity()))
	}
	return lines.out
}

// TiDB renders INL_JOIN(<index>), naming the inner table of the
// index nested loop join.
type TiDB struct{}

func (TiDB) Name() string { return "tidb" }

func (TiDB) Lines(ds []selector.Directive) []string {
	var lines dedupLines
	for _, d := range ds {
		lines.add(fmt.Sprintf("INL_JOIN(%s)", d.IndexScan.Identity()))
	}
	return lines.out
}

type dedupLines struct {
	seen map[string]bool
	out  []string
}

func (l *dedupLines) add(line string) {
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	if l.seen[line] {
		return
	}
	l.seen[line] = true
	l.out = append(l.out, line)
}

var renderers = map[string]Renderer{
	PgHintPlan{}.Name(): PgHintPlan{},
	Positional{}.Name(): Positional{},
	TiDB{}.Name():       TiDB{},
}

// DefaultRenderer is the renderer name used when none is configured.
const DefaultRenderer = "pg_hint_plan"

// RendererNames lists the registered renderer names, sorted.
func RendererNames() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupRenderer returns the renderer registered under name. Empty selects
// the default.
func LookupRenderer(name string) (Renderer, error) {
	if name == "" {
		name = DefaultRenderer
	}
	r, ok := renderers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown renderer %q: must be one of %v", name, RendererNames())
	}
	return r, nil
}
