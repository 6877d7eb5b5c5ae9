package checker

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/mpyw/closerown/internal/directives/ignore"
	"github.com/mpyw/closerown/internal/disposable"
	"github.com/mpyw/closerown/internal/recursion"
	"github.com/mpyw/closerown/internal/symbol"
	"github.com/mpyw/closerown/internal/typeutil"
	"github.com/mpyw/closerown/internal/values"
)

// checkReassign reports an assignment of a created closer to a variable or
// field that may still hold a live one.
func (c *Checker) checkReassign(s *recursion.Session, assign *ast.AssignStmt, r *funcResult) {
	if assign.Tok != token.ASSIGN {
		return
	}
	for lhs, v := range c.assignedValues(assign) {
		obj := c.model.VarOf(lhs)
		if obj == nil || !typeutil.IsCloser(obj.Type()) {
			continue
		}
		if !c.engine.IsCreationAt(s, v) {
			continue
		}
		if c.engine.IsNilGuarded(obj, assign) {
			continue
		}

		var live bool
		switch {
		case c.model.IsLocal(obj):
			live = c.localIsLive(s, obj, v, assign)
		case obj.IsField():
			live = c.fieldIsLive(s, obj, lhs, assign)
		}
		if live {
			r.report(lhs.Pos(), ignore.Reassign, fmt.Sprintf("close the previous value of %q before reassigning", types.ExprString(lhs)))
		}
	}
}

// assignedValues pairs each left-hand side of assign with the value slot it
// receives.
func (c *Checker) assignedValues(assign *ast.AssignStmt) map[ast.Expr]values.Value {
	out := make(map[ast.Expr]values.Value)
	if len(assign.Rhs) == 1 && len(assign.Lhs) > 1 {
		for i, lhs := range assign.Lhs {
			out[lhs] = values.Value{Expr: assign.Rhs[0], Index: i}
		}
		return out
	}
	for i, lhs := range assign.Lhs {
		if i < len(assign.Rhs) {
			out[lhs] = values.Of(assign.Rhs[i])
		}
	}
	return out
}

// localIsLive reports whether the value obj held before assign was created
// on a path leading here and has not been closed or handed on since.
func (c *Checker) localIsLive(s *recursion.Session, obj *types.Var, v values.Value, assign *ast.AssignStmt) bool {
	prev, ok := c.previousAssignment(obj, assign)
	if !ok || prev.Value == nil || prev.Range {
		return false
	}
	before := values.Value{Expr: prev.Value, Index: prev.Index}
	if !c.engine.IsCreationAt(s, before) || c.sameOrigins(s, v, before) {
		return false
	}

	for _, u := range c.model.Usages(obj) {
		if u.Pos() <= prev.Pos || u.Pos() >= assign.End() {
			continue
		}
		if c.engine.IsNilCompared(u) {
			continue
		}
		if c.engine.Fate(s, u) != disposable.Ignored || c.engine.DisposedByReturnValue(s, u) {
			return false
		}
	}
	return true
}

// sameOrigins reports whether every origin of v is also an origin of before,
// as when an alias is written back to the variable it was copied from.
func (c *Checker) sameOrigins(s *recursion.Session, v, before values.Value) bool {
	origins := make(map[values.Value]struct{})
	for leaf := range c.engine.Values().Recursive(s, before) {
		origins[leaf] = struct{}{}
	}

	found := false
	for leaf := range c.engine.Values().Recursive(s, v) {
		if _, ok := origins[leaf]; !ok {
			return false
		}
		found = true
	}
	return found
}

// previousAssignment returns the latest assignment to obj before assign
// whose statement encloses assign in the same block chain, so branches of
// the same if or switch do not see each other.
func (c *Checker) previousAssignment(obj *types.Var, assign *ast.AssignStmt) (symbol.Assignment, bool) {
	prev := c.model.AssignmentsBefore(obj, assign.Pos())
	for i := len(prev) - 1; i >= 0; i-- {
		block := c.enclosingBlock(prev[i].Node)
		if block != nil && c.encloses(block, assign) {
			return prev[i], true
		}
	}
	return symbol.Assignment{}, false
}

func (c *Checker) enclosingBlock(n ast.Node) ast.Node {
	for p := c.model.Parent(n); p != nil; p = c.model.Parent(p) {
		switch p.(type) {
		case *ast.BlockStmt, *ast.CaseClause, *ast.CommClause:
			return p
		case *ast.FuncDecl, *ast.FuncLit:
			return nil
		}
	}
	return nil
}

func (c *Checker) encloses(ancestor, n ast.Node) bool {
	for p := c.model.Parent(n); p != nil; p = c.model.Parent(p) {
		if p == ancestor {
			return true
		}
	}
	return false
}

// fieldIsLive reports whether a method overwrites a field of its own receiver
// without closing it first in the same method.
func (c *Checker) fieldIsLive(s *recursion.Session, field *types.Var, lhs ast.Expr, assign *ast.AssignStmt) bool {
	sel, ok := astutil.Unparen(lhs).(*ast.SelectorExpr)
	if !ok || field.Exported() || field.Pkg() != c.model.Pass.Pkg {
		return false
	}
	decl := c.model.OutermostFunc(assign)
	if decl == nil || decl.Recv == nil || len(decl.Recv.List) == 0 || len(decl.Recv.List[0].Names) == 0 {
		return false
	}
	recv := c.model.Pass.TypesInfo.Defs[decl.Recv.List[0].Names[0]]
	if recv == nil || c.model.ObjectOf(sel.X) != recv {
		return false
	}

	closed := false
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		if closed || n == nil || n.Pos() >= assign.Pos() {
			return false
		}
		if x, ok := n.(*ast.SelectorExpr); ok && x != sel && c.model.VarOf(x) == field && c.engine.Disposes(s, x) {
			closed = true
		}
		return true
	})
	return !closed
}
