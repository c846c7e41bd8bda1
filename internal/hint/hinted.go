// Package hint turns selector decisions into a hint-augmented query and
// renders them as an optimizer-hint comment.
package hint

import (
	"github.com/rbergm/diploma-thesis/internal/querymodel"
	"github.com/rbergm/diploma-thesis/internal/selector"
)

// HintedQuery is a query model together with the directives chosen for it.
// It is a value: Annotate copies the directives, and accessors return copies.
type HintedQuery struct {
	query      *querymodel.Query
	directives []selector.Directive
}

// Annotate combines q with directives. It never fails; an empty or nil
// directive slice yields a HintedQuery without hints.
func Annotate(q *querymodel.Query, directives []selector.Directive) HintedQuery {
	return HintedQuery{
		query:      q,
		directives: append([]selector.Directive(nil), directives...),
	}
}

// Query returns the underlying, unmodified query model.
func (h HintedQuery) Query() *querymodel.Query { return h.query }

// Directives returns the directives in traversal order.
func (h HintedQuery) Directives() []selector.Directive {
	return append([]selector.Directive(nil), h.directives...)
}

// Empty reports whether the query carries no directives.
func (h HintedQuery) Empty() bool { return len(h.directives) == 0 }

// Len returns the number of directives.
func (h HintedQuery) Len() int { return len(h.directives) }

// Apply renders the hint comment and places it above the query text. When
// the comment is absent, the bare query text is returned.
func (h HintedQuery) Apply(opts Options) string {
	comment := Serialize(h, opts)
	text := ""
	if h.query != nil {
		text = h.query.Text()
	}
	if comment == "" {
		return text
	}
	return comment + "\n" + text
}
