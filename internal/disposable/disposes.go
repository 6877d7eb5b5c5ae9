package disposable

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/mpyw/closerown/internal/recursion"
	"github.com/mpyw/closerown/internal/registry"
)

// Disposes reports whether the value of expr is closed: directly, by a
// deferred or method-value Close, through a wrapper that is itself closed, by
// a callee or accept loop, or through a local it is assigned to.
func (e *Engine) Disposes(s *recursion.Session, expr ast.Expr) bool {
	return s.Memo(recursion.Disposes, expr, func() bool {
		parent, child := e.parentOf(expr)

		switch p := parent.(type) {
		case *ast.SelectorExpr:
			if p.X != child {
				return false
			}
			if p.Sel.Name == "Close" {
				return true
			}
			if call := e.methodCall(p, child); call != nil && e.DisposedByReturnValue(s, child) {
				return e.Disposes(s, call)
			}
			return false

		case *ast.TypeAssertExpr:
			return e.Disposes(s, p)

		case *ast.UnaryExpr:
			return p.Op == token.AND && e.Disposes(s, p)

		case *ast.StarExpr:
			return e.Disposes(s, p)

		case *ast.CallExpr:
			return e.disposesArg(s, p, child)

		case *ast.RangeStmt:
			if p.X != child || p.Value == nil {
				return false
			}
			return e.disposesVar(s, e.model.AssignTarget(p.Value))

		case *ast.AssignStmt, *ast.ValueSpec:
			sinks, ok := e.sinks(parent, child)
			if !ok || len(sinks) == 0 {
				return false
			}
			for _, sk := range sinks {
				if sk.kind != sinkLocal || !e.disposesVar(s, sk.obj) {
					return false
				}
			}
			return true
		}
		return false
	})
}

func (e *Engine) disposesArg(s *recursion.Session, call *ast.CallExpr, arg ast.Expr) bool {
	idx := argIndex(call, arg)
	if idx < 0 {
		return false
	}

	if fn := e.calleeFunc(call); fn != nil && e.registry.MatchArg(fn, registry.RunsUntilClosed, idx) != nil {
		return true
	}

	if e.isIdentityArg(call, arg) {
		return e.Disposes(s, call)
	}

	targets := e.Targets(call, arg)
	if len(targets) > 0 {
		all := true
		for _, t := range targets {
			if !e.targetDisposes(s, t) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}

	if e.DisposedByReturnValue(s, arg) {
		return e.Disposes(s, call)
	}
	return false
}

// targetDisposes reports whether the callee closes the parameter on some path.
func (e *Engine) targetDisposes(s *recursion.Session, t Target) bool {
	for _, u := range e.paramUsages(t) {
		if e.Disposes(s, u) {
			return true
		}
	}
	return false
}

// disposesVar reports whether any read of v closes it.
func (e *Engine) disposesVar(s *recursion.Session, obj types.Object) bool {
	if obj == nil {
		return false
	}
	for _, u := range e.model.Usages(obj) {
		if e.Disposes(s, u) {
			return true
		}
	}
	return false
}
