package disposable

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/mpyw/closerown/internal/recursion"
)

// Returns reports whether expr leaves its function as a result: returned,
// yielded, forwarded through a pass-through or wrapper that is returned, or
// assigned to a named result or a local that is returned.
func (e *Engine) Returns(s *recursion.Session, expr ast.Expr) bool {
	return s.Memo(recursion.Returns, expr, func() bool {
		parent, child := e.parentOf(expr)

		switch p := parent.(type) {
		case *ast.ReturnStmt:
			return true

		case *ast.TypeAssertExpr:
			return e.Returns(s, p)

		case *ast.UnaryExpr:
			return p.Op == token.AND && e.Returns(s, p)

		case *ast.AssignStmt, *ast.ValueSpec:
			sinks, ok := e.sinks(parent, child)
			if !ok {
				return false
			}
			for _, sk := range sinks {
				switch sk.kind {
				case sinkResult:
					return true
				case sinkLocal:
					for _, u := range e.model.Usages(sk.obj) {
						if e.Returns(s, u) {
							return true
						}
					}
				}
			}
			return false

		case *ast.CompositeLit, *ast.KeyValueExpr:
			lit, _ := e.literalOf(parent, child)
			return lit != nil && e.Returns(s, lit)

		case *ast.CallExpr:
			if argIndex(p, child) < 0 {
				return false
			}
			if e.isYield(p) {
				return true
			}
			if e.isIdentityArg(p, child) {
				return e.Returns(s, p)
			}
			if e.DisposedByReturnValue(s, child) || e.AccessibleInReturnValue(s, child) {
				return e.Returns(s, p)
			}
		}
		return false
	})
}

// isYield reports whether call invokes a function-typed parameter named
// yield, as range-over-func iterators do.
func (e *Engine) isYield(call *ast.CallExpr) bool {
	id, ok := astutil.Unparen(call.Fun).(*ast.Ident)
	if !ok || id.Name != "yield" {
		return false
	}
	v, ok := e.model.Pass.TypesInfo.Uses[id].(*types.Var)
	if !ok {
		return false
	}
	_, isFunc := v.Type().Underlying().(*types.Signature)
	return isFunc
}
