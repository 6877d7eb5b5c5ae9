package disposable

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/mpyw/closerown/internal/recursion"
)

// Ignores reports whether the value of expr is dropped: nothing closes it,
// keeps it in a field or container, or returns it, and every path it takes
// ends in a blank assignment, a bare statement, or a callee that ignores it.
func (e *Engine) Ignores(s *recursion.Session, expr ast.Expr) bool {
	return s.Memo(recursion.Ignores, expr, func() bool {
		if e.Disposes(s, expr) || e.Assigns(s, expr) || e.Stores(s, expr) || e.Returns(s, expr) {
			return false
		}

		parent, child := e.parentOf(expr)

		switch p := parent.(type) {
		case *ast.AssignStmt, *ast.ValueSpec:
			sinks, ok := e.sinks(parent, child)
			if !ok || len(sinks) == 0 {
				return false
			}
			for _, sk := range sinks {
				if sk.kind == sinkBlank {
					return true
				}
			}
			for _, sk := range sinks {
				if sk.kind != sinkLocal || !e.ignoresLocal(s, sk.obj) {
					return false
				}
			}
			return true

		case *ast.ExprStmt, *ast.GoStmt, *ast.DeferStmt:
			return true

		case *ast.CallExpr:
			if argIndex(p, child) < 0 {
				return false
			}
			if e.isIdentityArg(p, child) {
				return e.Ignores(s, p)
			}
			targets := e.Targets(p, child)
			if len(targets) == 0 {
				return false
			}
			for _, t := range targets {
				if e.ignoresTarget(s, t) {
					return true
				}
			}
			return false

		case *ast.SelectorExpr:
			if p.X != child {
				return false
			}
			// Method calls and field reads on a value do not take it over,
			// unless the method returns a wrapper closing the receiver.
			if call := e.methodCall(p, child); call != nil && e.DisposedByReturnValue(s, child) {
				return e.Ignores(s, call)
			}
			return true

		case *ast.CompositeLit, *ast.KeyValueExpr:
			lit, _ := e.literalOf(parent, child)
			return lit != nil && e.Ignores(s, lit)

		case *ast.UnaryExpr:
			return p.Op == token.AND && e.Ignores(s, p)

		case *ast.TypeAssertExpr:
			return e.Ignores(s, p)

		case *ast.BinaryExpr:
			return e.isNilComparison(p)
		}
		return false
	})
}

// ignoresLocal reports whether every read of a local ignores its value.
// Nil comparisons count as ignoring.
func (e *Engine) ignoresLocal(s *recursion.Session, obj types.Object) bool {
	compute := func() bool {
		for _, u := range e.model.Usages(obj) {
			if e.IsNilCompared(u) {
				continue
			}
			if !e.Ignores(s, u) {
				return false
			}
		}
		return true
	}

	ident := e.model.DefIdent(obj)
	if ident == nil {
		return compute()
	}
	return s.Memo(recursion.IgnoresLocal, ident, compute)
}

// ignoresTarget decides whether a callee ignores the argument bound to t.
func (e *Engine) ignoresTarget(s *recursion.Session, t Target) bool {
	if t.Func != nil && e.classifier.TakesOwnership(t.Func.Origin(), t.Index) {
		return false
	}
	if sig, _, _ := e.callee(t.Call); sig != nil {
		// An explicit leaveOpen or a missing closeHandler leaves the caller
		// responsible whatever the callee does with the argument.
		if transfers, found := e.leaveOpen(t.Call, sig); found && !transfers {
			return true
		}
		if transfers, found := e.disposeHandler(t.Call, sig); found && !transfers {
			return true
		}
	}
	if t.Body() == nil {
		if !e.Ignores(s, t.Call) {
			return !e.DisposedByReturnValue(s, t.Arg) && !e.AccessibleInReturnValue(s, t.Arg)
		}
		return true
	}

	if t.Param == nil {
		return true
	}
	return s.MemoSlot(recursion.IgnoresTarget, t.Arg, t.Index, func() bool {
		if e.classifier.IsAcquiredOwnership(t.Param) {
			return false
		}
		for _, u := range e.paramUsages(t) {
			if !e.usageIgnored(s, t, u) {
				return false
			}
		}
		return true
	})
}

// usageIgnored classifies one read of a callee parameter.
func (e *Engine) usageIgnored(s *recursion.Session, t Target, u *ast.Ident) bool {
	if e.IsNilCompared(u) {
		return true
	}

	parent, child := e.parentOf(u)
	if call, ok := parent.(*ast.CallExpr); ok && argIndex(call, child) >= 0 {
		return false
	}

	if sinks, ok := e.sinks(parent, child); ok {
		for _, sk := range sinks {
			switch sk.kind {
			case sinkField:
				field, _ := sk.obj.(*types.Var)
				if owner := closerResult(e.model.TypeOf(t.Call)); owner != nil && e.ClosesField(s, owner, field) {
					return e.Ignores(s, t.Call)
				}
				if e.Returns(s, t.Call) {
					return true
				}
				return !e.model.IsAccessibleAt(t.Call.Pos(), field)
			case sinkLocal:
				return e.ignoresLocal(s, sk.obj)
			}
		}
	}

	return e.Ignores(s, u)
}
