package disposable

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/mpyw/closerown/internal/recursion"
)

// mutatingMethods are collection methods that keep their argument.
var mutatingMethods = map[string]struct{}{
	"Add":         {},
	"Append":      {},
	"Push":        {},
	"PushBack":    {},
	"PushFront":   {},
	"Enqueue":     {},
	"Insert":      {},
	"Put":         {},
	"Set":         {},
	"Store":       {},
	"LoadOrStore": {},
	"Swap":        {},
	"TryAdd":      {},
	"Register":    {},
}

// Stores reports whether expr is kept in a container: appended, indexed into,
// used as a slice, array or map literal element, sent on a channel, or passed
// to a mutating collection method or a callee that stores it.
func (e *Engine) Stores(s *recursion.Session, expr ast.Expr) bool {
	return s.Memo(recursion.Stores, expr, func() bool {
		parent, child := e.parentOf(expr)

		switch p := parent.(type) {
		case *ast.TypeAssertExpr:
			return e.Stores(s, p)

		case *ast.UnaryExpr:
			return p.Op == token.AND && e.Stores(s, p)

		case *ast.SendStmt:
			return p.Value == child

		case *ast.AssignStmt, *ast.ValueSpec:
			sinks, ok := e.sinks(parent, child)
			if !ok {
				return false
			}
			for _, sk := range sinks {
				switch sk.kind {
				case sinkElement:
					return true
				case sinkLocal:
					for _, u := range e.model.Usages(sk.obj) {
						if e.Stores(s, u) {
							return true
						}
					}
				}
			}
			return false

		case *ast.CompositeLit, *ast.KeyValueExpr:
			lit, _ := e.literalOf(parent, child)
			return lit != nil && e.isContainerLiteral(lit)

		case *ast.CallExpr:
			return e.storesArg(s, p, child)
		}
		return false
	})
}

func (e *Engine) storesArg(s *recursion.Session, call *ast.CallExpr, arg ast.Expr) bool {
	idx := argIndex(call, arg)
	if idx < 0 {
		return false
	}

	fun := astutil.Unparen(call.Fun)
	if id, ok := fun.(*ast.Ident); ok && id.Name == "append" && idx > 0 {
		if _, builtin := e.model.Pass.TypesInfo.Uses[id].(*types.Builtin); builtin {
			return true
		}
	}
	if sel, ok := fun.(*ast.SelectorExpr); ok {
		if _, mutating := mutatingMethods[sel.Sel.Name]; mutating && e.isMethodCall(sel) {
			return true
		}
	}

	if e.isIdentityArg(call, arg) {
		return e.Stores(s, call)
	}

	for _, t := range e.Targets(call, arg) {
		for _, u := range e.paramUsages(t) {
			if e.Stores(s, u) {
				return true
			}
		}
	}
	return false
}

func (e *Engine) isMethodCall(sel *ast.SelectorExpr) bool {
	selection := e.model.Pass.TypesInfo.Selections[sel]
	return selection != nil && selection.Kind() == types.MethodVal
}

func (e *Engine) isContainerLiteral(lit *ast.CompositeLit) bool {
	t := e.model.TypeOf(lit)
	if t == nil {
		return false
	}
	switch t.Underlying().(type) {
	case *types.Slice, *types.Array, *types.Map:
		return true
	}
	return false
}
