package checker

import (
	"fmt"
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/mpyw/closerown/internal/directives/ignore"
)

// checkUseAfterClose reports the first read of a variable in the statements
// following an immediate Close of it, up to the next assignment.
func (c *Checker) checkUseAfterClose(sel *ast.SelectorExpr, r *funcResult) {
	id, ok := astutil.Unparen(sel.X).(*ast.Ident)
	if !ok {
		return
	}
	v, ok := c.model.ObjectOf(id).(*types.Var)
	if !ok || (!c.model.IsLocal(v) && !c.model.IsParam(v)) {
		return
	}
	call, ok := c.model.Parent(sel).(*ast.CallExpr)
	if !ok || call.Fun != sel {
		return
	}

	stmt, list := c.statementOf(call)
	if stmt == nil {
		return
	}

	after := false
	for _, next := range list {
		if !after {
			after = next == stmt
			continue
		}
		if u := c.firstRead(v, next); u != nil {
			r.report(u.Pos(), ignore.UseAfterClose, fmt.Sprintf("%q is used after Close", v.Name()))
			return
		}
		if c.assigns(v, next) {
			return
		}
	}
}

// statementOf returns the statement running n directly and the statement
// list holding it. Deferred and spawned calls and function literals yield
// nil.
func (c *Checker) statementOf(n ast.Node) (ast.Stmt, []ast.Stmt) {
	child := n
	for p := c.model.Parent(n); p != nil; child, p = p, c.model.Parent(p) {
		var list []ast.Stmt
		switch x := p.(type) {
		case *ast.DeferStmt, *ast.GoStmt, *ast.FuncLit:
			return nil, nil
		case *ast.BlockStmt:
			list = x.List
		case *ast.CaseClause:
			list = x.Body
		case *ast.CommClause:
			list = x.Body
		default:
			continue
		}
		stmt, ok := child.(ast.Stmt)
		if !ok {
			return nil, nil
		}
		return stmt, list
	}
	return nil, nil
}

// firstRead returns the first read of v in stmt that happens before any
// assignment to v in it. Nil comparisons and further Close calls are not
// reads.
func (c *Checker) firstRead(v *types.Var, stmt ast.Stmt) *ast.Ident {
	reassigned := stmt.End()
	for _, a := range c.model.Assignments(v) {
		if a.Node == nil || a.Pos < stmt.Pos() || a.Node.End() > stmt.End() {
			continue
		}
		// the right-hand side is read before the write lands
		if end := a.Node.End(); end < reassigned {
			reassigned = end
		}
	}
	for _, u := range c.model.UsagesIn(v, stmt) {
		if u.Pos() >= reassigned {
			break
		}
		if c.engine.IsNilCompared(u) {
			continue
		}
		if sel, ok := c.model.Parent(u).(*ast.SelectorExpr); ok && sel.Sel.Name == "Close" {
			continue
		}
		return u
	}
	return nil
}

func (c *Checker) assigns(v *types.Var, stmt ast.Stmt) bool {
	for _, a := range c.model.Assignments(v) {
		if a.Pos >= stmt.Pos() && a.Pos < stmt.End() {
			return true
		}
	}
	return false
}
