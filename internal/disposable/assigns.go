package disposable

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/mpyw/closerown/internal/recursion"
)

// Assigns reports whether expr ends up in a struct field or package-level
// variable.
func (e *Engine) Assigns(s *recursion.Session, expr ast.Expr) bool {
	_, ok := e.AssignedField(s, expr)
	return ok
}

// AssignedField returns the field or package-level variable expr is assigned
// to, following locals and one hop into a method of the same receiver type.
func (e *Engine) AssignedField(s *recursion.Session, expr ast.Expr) (*types.Var, bool) {
	return recursion.MemoValue(s, recursion.Assigns, expr, func() (*types.Var, bool) {
		parent, child := e.parentOf(expr)

		switch p := parent.(type) {
		case *ast.TypeAssertExpr:
			return e.AssignedField(s, p)

		case *ast.UnaryExpr:
			if p.Op == token.AND {
				return e.AssignedField(s, p)
			}

		case *ast.AssignStmt, *ast.ValueSpec:
			sinks, ok := e.sinks(parent, child)
			if !ok {
				return nil, false
			}
			for _, sk := range sinks {
				switch sk.kind {
				case sinkField:
					return sk.obj.(*types.Var), true
				case sinkLocal:
					for _, u := range e.model.Usages(sk.obj) {
						if f, ok := e.AssignedField(s, u); ok {
							return f, true
						}
					}
				}
			}

		case *ast.CompositeLit, *ast.KeyValueExpr:
			lit, elt := e.literalOf(parent, child)
			if lit == nil {
				return nil, false
			}
			if f := e.structField(lit, elt); f != nil {
				return f, true
			}

		case *ast.CallExpr:
			if argIndex(p, child) < 0 {
				return nil, false
			}
			if e.isIdentityArg(p, child) {
				return e.AssignedField(s, p)
			}
			for _, t := range e.Targets(p, child) {
				if f := e.setterField(t); f != nil {
					return f, true
				}
			}
		}
		return nil, false
	})
}

// setterField follows one hop into a method call on a receiver of the same or
// an assignable type as the caller's receiver, and returns the field the
// method stores the parameter in.
func (e *Engine) setterField(t Target) *types.Var {
	decl, ok := t.Decl.(*ast.FuncDecl)
	if !ok || decl.Recv == nil || t.Func == nil {
		return nil
	}
	sel, ok := astutil.Unparen(t.Call.Fun).(*ast.SelectorExpr)
	if !ok {
		return nil
	}
	calleeRecv := t.Func.Origin().Signature().Recv()
	recvType := e.model.TypeOf(sel.X)
	if calleeRecv == nil || recvType == nil {
		return nil
	}
	if !e.model.IsAssignable(recvType, calleeRecv.Type()) &&
		!e.model.IsAssignable(types.NewPointer(recvType), calleeRecv.Type()) {
		return nil
	}

	for _, u := range e.paramUsages(t) {
		parent, child := e.parentOf(u)
		sinks, ok := e.sinks(parent, child)
		if !ok {
			continue
		}
		for _, sk := range sinks {
			if sk.kind == sinkField {
				return sk.obj.(*types.Var)
			}
		}
	}
	return nil
}
