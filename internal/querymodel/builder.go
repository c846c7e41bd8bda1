package querymodel

import "fmt"

// Builder assembles a Query. It is used by front ends while walking a
// parse tree and discarded once Build returns.
//
// Example:
//
//	b := querymodel.NewBuilder(sql)
//	root := b.Root()
//	root.AddTable(querymodel.TableRef{Name: "title", Alias: "t"})
//	sq := root.Subquery("sq")
//	sq.AddTable(querymodel.TableRef{Name: "movie_companies", Alias: "mc"})
//	sq.AddTable(querymodel.TableRef{Name: "company_name", Alias: "cn"})
//	sq.AddEdge(mcCompanyID, cnID, "=")
//	q, err := b.Build(resolver)
type Builder struct {
	text string
	root *BlockBuilder
}

// BlockBuilder collects the tables, predicates and subqueries of one Block.
type BlockBuilder struct {
	alias    string
	parent   *BlockBuilder
	tables   []TableRef
	preds    []JoinEdge
	children []*BlockBuilder
}

// NewBuilder starts a Query for the given original text.
func NewBuilder(text string) *Builder {
	return &Builder{text: text, root: &BlockBuilder{}}
}

// Root returns the builder of the outer query.
func (b *Builder) Root() *BlockBuilder {
	return b.root
}

// AddTable declares a table reference in the Block.
func (bb *BlockBuilder) AddTable(ref TableRef) *BlockBuilder {
	bb.tables = append(bb.tables, ref)
	return bb
}

// AddEdge records a predicate between two columns. Whether it becomes a
// join edge or a correlation edge is decided by Build.
func (bb *BlockBuilder) AddEdge(left, right ColumnRef, op string) *BlockBuilder {
	if op == "" {
		op = "="
	}
	bb.preds = append(bb.preds, JoinEdge{Left: left, Right: right, Op: op})
	return bb
}

// Subquery opens a nested Block bound to alias (may be empty).
func (bb *BlockBuilder) Subquery(alias string) *BlockBuilder {
	child := &BlockBuilder{alias: alias, parent: bb}
	bb.children = append(bb.children, child)
	return child
}

// Alias returns the alias the Block is bound to.
func (bb *BlockBuilder) Alias() string {
	return bb.alias
}

// Tables returns the table references declared so far in this Block.
func (bb *BlockBuilder) Tables() []TableRef {
	return append([]TableRef(nil), bb.tables...)
}

// Resolve finds a table reference by identity in this Block or an
// enclosing one, innermost first.
func (bb *BlockBuilder) Resolve(identity string) (TableRef, bool) {
	for cur := bb; cur != nil; cur = cur.parent {
		for _, t := range cur.tables {
			if t.Identity() == identity {
				return t, true
			}
		}
	}
	return TableRef{}, false
}

// Build freezes the collected structure into a Query. The Builder must not
// be reused afterwards; the returned Query shares no memory with it.
func (b *Builder) Build(resolver KeyResolver) (*Query, error) {
	root, err := b.root.build(nil, 0)
	if err != nil {
		return nil, err
	}
	return &Query{text: b.text, root: root, resolver: resolver}, nil
}

func (bb *BlockBuilder) build(parent *Block, depth int) (*Block, error) {
	blk := &Block{
		alias:  bb.alias,
		depth:  depth,
		parent: parent,
		tables: append([]TableRef(nil), bb.tables...),
	}

	for _, pred := range bb.preds {
		_, leftLocal := blk.lookup(pred.Left.Table.Identity())
		_, rightLocal := blk.lookup(pred.Right.Table.Identity())

		switch {
		case leftLocal && rightLocal:
			pred.Seq = len(blk.edges)
			blk.edges = append(blk.edges, pred)
		case leftLocal || rightLocal:
			outer := pred.Right
			if rightLocal {
				outer = pred.Left
			}
			if !visibleFrom(parent, outer.Table.Identity()) {
				return nil, &BuildError{
					Block:   blk.Name(),
					Message: fmt.Sprintf("predicate %s references unknown table %q", pred, outer.Table.Identity()),
				}
			}
			pred.Seq = len(blk.correlations)
			blk.correlations = append(blk.correlations, pred)
		default:
			return nil, &BuildError{
				Block:   blk.Name(),
				Message: fmt.Sprintf("predicate %s does not reference a table of this block", pred),
			}
		}
	}

	for _, child := range bb.children {
		c, err := child.build(blk, depth+1)
		if err != nil {
			return nil, err
		}
		blk.children = append(blk.children, c)
	}

	return blk, nil
}

// visibleFrom reports whether identity is declared in b or an ancestor.
func visibleFrom(b *Block, identity string) bool {
	for cur := b; cur != nil; cur = cur.parent {
		if _, ok := cur.lookup(identity); ok {
			return true
		}
	}
	return false
}
