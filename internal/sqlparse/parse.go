// Package sqlparse turns SQL query text into a querymodel.Query using the
// TiDB (MySQL dialect) parser.
//
// Every SELECT scope becomes a Block: derived tables in FROM become
// subqueries bound to their alias, subqueries anywhere else (select list,
// WHERE/ON predicates, GROUP BY, HAVING, ORDER BY) become unaliased
// subqueries. Column equalities between two tables of a WHERE or ON clause
// are recorded as join predicates; everything else is treated as a filter
// and ignored.
//
// Unquoted identifiers are folded to lower case. Backtick-quoted ones keep
// their case so that hints name them exactly as the query does.
package sqlparse

import (
	"fmt"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/rbergm/diploma-thesis/internal/querymodel"
)

// Parser converts query text into a query model. A Parser is not safe for
// concurrent use; the batch driver creates one per worker.
type Parser struct {
	p *parser.Parser
}

// New returns a Parser for the MySQL dialect.
func New() *Parser {
	return &Parser{p: parser.New()}
}

// Parse parses one SELECT statement and builds its query model with the
// given key resolver attached.
func (ps *Parser) Parse(sql string, resolver querymodel.KeyResolver) (*querymodel.Query, error) {
	stmt, err := ps.p.ParseOneStmt(sql, "", "")
	if err != nil {
		return nil, newParseError(sql, "syntax error", err)
	}

	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return nil, newParseError(sql, fmt.Sprintf("unsupported statement %T, only SELECT is supported", stmt), nil)
	}

	w := &walker{quoted: quotedIdents(sql)}
	b := querymodel.NewBuilder(sql)
	if err := w.walkSelect(b.Root(), sel); err != nil {
		return nil, newParseError(sql, err.Error(), nil)
	}

	q, err := b.Build(resolver)
	if err != nil {
		return nil, newParseError(sql, "building query model", err)
	}
	return q, nil
}

// Parse is a convenience wrapper around New().Parse.
func Parse(sql string, resolver querymodel.KeyResolver) (*querymodel.Query, error) {
	return New().Parse(sql, resolver)
}

// walker carries per-statement state through the parse tree.
type walker struct {
	quoted map[string]bool
}

// ident returns the model form of an identifier.
func (w *walker) ident(s string) string {
	if w.quoted[s] {
		return querymodel.NormalizeQuotedIdent(s)
	}
	return querymodel.NormalizeIdent(s)
}

// walkSelect fills bb from one SELECT scope. Tables are declared first so
// that predicates and nested subqueries can be resolved against all of
// them regardless of their position in the statement. Child Blocks are
// opened in clause order.
func (w *walker) walkSelect(bb *querymodel.BlockBuilder, sel *ast.SelectStmt) error {
	var (
		derived []derivedTable
		ons     []ast.ExprNode
	)
	if sel.From != nil && sel.From.TableRefs != nil {
		if err := w.collectFrom(bb, sel.From.TableRefs, &derived, &ons); err != nil {
			return err
		}
	}

	if sel.Fields != nil {
		if err := w.walkSubqueries(bb, sel.Fields); err != nil {
			return err
		}
	}

	for _, d := range derived {
		if err := w.walkSubquery(bb.Subquery(d.alias), d.node); err != nil {
			return err
		}
	}

	for _, on := range ons {
		if err := w.walkPredicate(bb, on); err != nil {
			return err
		}
	}
	if sel.Where != nil {
		if err := w.walkPredicate(bb, sel.Where); err != nil {
			return err
		}
	}

	var tail []ast.Node
	if sel.GroupBy != nil {
		tail = append(tail, sel.GroupBy)
	}
	if sel.Having != nil && sel.Having.Expr != nil {
		tail = append(tail, sel.Having.Expr)
	}
	if sel.OrderBy != nil {
		tail = append(tail, sel.OrderBy)
	}
	for _, n := range tail {
		if err := w.walkSubqueries(bb, n); err != nil {
			return err
		}
	}
	return nil
}

type derivedTable struct {
	alias string
	node  ast.ResultSetNode
}

func (w *walker) collectFrom(bb *querymodel.BlockBuilder, node ast.ResultSetNode, derived *[]derivedTable, ons *[]ast.ExprNode) error {
	switch n := node.(type) {
	case nil:
		return nil
	case *ast.Join:
		if err := w.collectFrom(bb, n.Left, derived, ons); err != nil {
			return err
		}
		if err := w.collectFrom(bb, n.Right, derived, ons); err != nil {
			return err
		}
		if n.On != nil && n.On.Expr != nil {
			*ons = append(*ons, n.On.Expr)
		}
		return nil
	case *ast.TableSource:
		alias := w.ident(n.AsName.O)
		switch src := n.Source.(type) {
		case *ast.TableName:
			bb.AddTable(querymodel.TableRef{Name: w.ident(src.Name.O), Alias: alias})
			return nil
		case *ast.Join:
			return w.collectFrom(bb, src, derived, ons)
		case *ast.SelectStmt, *ast.SetOprStmt:
			if alias == "" {
				return fmt.Errorf("derived table without alias")
			}
			bb.AddTable(querymodel.TableRef{Alias: alias})
			*derived = append(*derived, derivedTable{alias: alias, node: src})
			return nil
		default:
			return fmt.Errorf("unsupported table source %T", src)
		}
	default:
		return fmt.Errorf("unsupported FROM element %T", node)
	}
}

// walkSubquery descends into the body of a subquery. Set operations
// contribute only their first SELECT.
func (w *walker) walkSubquery(bb *querymodel.BlockBuilder, node ast.ResultSetNode) error {
	switch n := node.(type) {
	case *ast.SelectStmt:
		return w.walkSelect(bb, n)
	case *ast.SetOprStmt:
		if n.SelectList == nil || len(n.SelectList.Selects) == 0 {
			return fmt.Errorf("empty set operation")
		}
		first, ok := n.SelectList.Selects[0].(*ast.SelectStmt)
		if !ok {
			return fmt.Errorf("unsupported set operation operand %T", n.SelectList.Selects[0])
		}
		return w.walkSelect(bb, first)
	default:
		return fmt.Errorf("unsupported subquery %T", node)
	}
}

// walkPredicate splits expr into conjuncts. Column equalities become
// predicates on bb; subqueries found anywhere else become child Blocks.
func (w *walker) walkPredicate(bb *querymodel.BlockBuilder, expr ast.ExprNode) error {
	for _, conj := range conjuncts(expr) {
		if left, right, ok := columnEquality(conj); ok {
			if err := w.addEquality(bb, left, right); err != nil {
				return err
			}
			continue
		}

		if err := w.walkSubqueries(bb, conj); err != nil {
			return err
		}
	}
	return nil
}

// walkSubqueries opens an unaliased child Block for every outermost
// subquery below node.
func (w *walker) walkSubqueries(bb *querymodel.BlockBuilder, node ast.Node) error {
	v := &subqueryCollector{}
	node.Accept(v)
	for _, sq := range v.found {
		if err := w.walkSubquery(bb.Subquery(""), sq.Query); err != nil {
			return err
		}
	}
	return nil
}

func conjuncts(expr ast.ExprNode) []ast.ExprNode {
	switch e := expr.(type) {
	case *ast.ParenthesesExpr:
		return conjuncts(e.Expr)
	case *ast.BinaryOperationExpr:
		if e.Op == opcode.LogicAnd {
			return append(conjuncts(e.L), conjuncts(e.R)...)
		}
	}
	return []ast.ExprNode{expr}
}

func columnEquality(expr ast.ExprNode) (*ast.ColumnName, *ast.ColumnName, bool) {
	bin, ok := expr.(*ast.BinaryOperationExpr)
	if !ok || bin.Op != opcode.EQ {
		return nil, nil, false
	}
	l, lok := unparen(bin.L).(*ast.ColumnNameExpr)
	r, rok := unparen(bin.R).(*ast.ColumnNameExpr)
	if !lok || !rok {
		return nil, nil, false
	}
	return l.Name, r.Name, true
}

func unparen(expr ast.ExprNode) ast.ExprNode {
	for {
		p, ok := expr.(*ast.ParenthesesExpr)
		if !ok {
			return expr
		}
		expr = p.Expr
	}
}

func (w *walker) addEquality(bb *querymodel.BlockBuilder, left, right *ast.ColumnName) error {
	l, ok, err := w.resolveColumn(bb, left)
	if err != nil || !ok {
		return err
	}
	r, ok, err := w.resolveColumn(bb, right)
	if err != nil || !ok {
		return err
	}
	if l.Table.Identity() == r.Table.Identity() {
		return nil
	}
	bb.AddEdge(l, r, "=")
	return nil
}

// resolveColumn binds a column to its table. Unqualified columns are only
// bound when the Block declares exactly one table; otherwise ok is false
// and the predicate is treated as a filter.
func (w *walker) resolveColumn(bb *querymodel.BlockBuilder, col *ast.ColumnName) (querymodel.ColumnRef, bool, error) {
	column := w.ident(col.Name.O)
	qualifier := w.ident(col.Table.O)

	if qualifier == "" {
		tables := bb.Tables()
		if len(tables) != 1 {
			return querymodel.ColumnRef{}, false, nil
		}
		return querymodel.ColumnRef{Table: tables[0], Column: column}, true, nil
	}

	ref, ok := bb.Resolve(qualifier)
	if !ok {
		return querymodel.ColumnRef{}, false, fmt.Errorf("column %s.%s references unknown table %q", qualifier, column, qualifier)
	}
	return querymodel.ColumnRef{Table: ref, Column: column}, true, nil
}

// subqueryCollector gathers the outermost subqueries of an expression.
type subqueryCollector struct {
	found []*ast.SubqueryExpr
}

func (v *subqueryCollector) Enter(n ast.Node) (ast.Node, bool) {
	if sq, ok := n.(*ast.SubqueryExpr); ok {
		v.found = append(v.found, sq)
		return n, true
	}
	return n, false
}

func (v *subqueryCollector) Leave(n ast.Node) (ast.Node, bool) {
	return n, true
}
