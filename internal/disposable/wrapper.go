package disposable

import (
	"go/ast"
	"go/constant"
	"go/types"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/mpyw/closerown/internal/recursion"
	"github.com/mpyw/closerown/internal/registry"
	"github.com/mpyw/closerown/internal/typeutil"
)

// DisposedByReturnValue reports whether expr is handed to a wrapper whose
// Close also closes expr: a known adopting constructor, a constructor told to
// take ownership, an invisible function returning a closer, a visible
// constructor storing expr in a field its result closes, a visible method of
// expr storing its receiver the same way, or a struct literal of a closer type
// whose Close closes the field.
func (e *Engine) DisposedByReturnValue(s *recursion.Session, expr ast.Expr) bool {
	return s.Memo(recursion.DisposedByReturnValue, expr, func() bool {
		parent, child := e.parentOf(expr)

		switch p := parent.(type) {
		case *ast.SelectorExpr:
			call := e.methodCall(p, child)
			return call != nil && e.receiverAdopted(s, call, child)

		case *ast.CallExpr:
			if argIndex(p, child) < 0 {
				return false
			}
			return e.callTakesOwnership(s, p, child)

		case *ast.CompositeLit, *ast.KeyValueExpr:
			lit, elt := e.literalOf(parent, child)
			if lit == nil {
				return false
			}
			field := e.structField(lit, elt)
			owner := e.model.TypeOf(lit)
			return field != nil && typeutil.IsCloser(owner) && e.ClosesField(s, owner, field)
		}
		return false
	})
}

func (e *Engine) callTakesOwnership(s *recursion.Session, call *ast.CallExpr, arg ast.Expr) bool {
	idx := argIndex(call, arg)

	if fn := e.calleeFunc(call); fn != nil {
		if e.registry.MatchArg(fn, registry.TakesOwnership, idx) != nil {
			return true
		}
		if e.registry.MatchArg(fn, registry.KeepsOpen, idx) != nil {
			return false
		}
	}

	sig, fn, decl := e.callee(call)
	if sig == nil {
		return false
	}
	if transfers, found := e.leaveOpen(call, sig); found {
		return transfers
	}
	if transfers, found := e.disposeHandler(call, sig); found {
		return transfers
	}
	if fn != nil && e.classifier.TakesOwnership(fn.Origin(), idx) {
		return true
	}

	result := e.model.TypeOf(call)
	if !typeutil.HasCloserResult(result) {
		return false
	}
	if decl == nil {
		// Unknown constructors returning a closer are assumed to adopt it.
		return true
	}

	owner := closerResult(result)
	for _, t := range e.Targets(call, arg) {
		for _, field := range e.paramFields(t) {
			if e.ClosesField(s, owner, field) {
				return true
			}
		}
	}
	return false
}

// methodCall returns the call invoking sel when recv is its operand.
func (e *Engine) methodCall(sel *ast.SelectorExpr, recv ast.Expr) *ast.CallExpr {
	if sel.X != recv {
		return nil
	}
	parent, child := e.parentOf(sel)
	call, ok := parent.(*ast.CallExpr)
	if !ok || call.Fun != child {
		return nil
	}
	return call
}

// receiverAdopted reports whether the visible method invoked by call stores
// its receiver in a field that the returned closer closes.
func (e *Engine) receiverAdopted(s *recursion.Session, call *ast.CallExpr, recv ast.Expr) bool {
	fn := e.calleeFunc(call)
	if fn == nil {
		return false
	}
	fn = fn.Origin()
	param := fn.Signature().Recv()
	if param == nil || isInterfaceMethod(fn) {
		return false
	}
	decl := e.model.FuncDeclOf(fn)
	if decl == nil {
		return false
	}
	result := e.model.TypeOf(call)
	if !typeutil.HasCloserResult(result) {
		return false
	}

	owner := closerResult(result)
	t := Target{Call: call, Arg: recv, Param: param, Index: -1, Func: fn, Decl: decl}
	for _, field := range e.paramFields(t) {
		if e.ClosesField(s, owner, field) {
			return true
		}
	}
	return false
}

// AccessibleInReturnValue reports whether expr is stored in a field of a
// created value that code at the call site can still reach, or is an element
// of a literal.
func (e *Engine) AccessibleInReturnValue(s *recursion.Session, expr ast.Expr) bool {
	return s.Memo(recursion.AccessibleInReturnValue, expr, func() bool {
		parent, child := e.parentOf(expr)

		switch p := parent.(type) {
		case *ast.CallExpr:
			if argIndex(p, child) < 0 {
				return false
			}
			for _, t := range e.Targets(p, child) {
				for _, field := range e.paramFields(t) {
					if e.model.IsAccessibleAt(p.Pos(), field) {
						return true
					}
				}
			}

		case *ast.CompositeLit, *ast.KeyValueExpr:
			lit, elt := e.literalOf(parent, child)
			if lit == nil {
				return false
			}
			if field := e.structField(lit, elt); field != nil {
				return e.model.IsAccessibleAt(lit.Pos(), field)
			}
			return true
		}
		return false
	})
}

// paramFields returns the fields a visible callee assigns the target parameter
// to, directly or through a struct literal.
func (e *Engine) paramFields(t Target) []*types.Var {
	var fields []*types.Var
	for _, u := range e.paramUsages(t) {
		parent, child := e.parentOf(u)
		if sinks, ok := e.sinks(parent, child); ok {
			for _, sk := range sinks {
				if sk.kind == sinkField {
					if v, ok := sk.obj.(*types.Var); ok && v.IsField() {
						fields = append(fields, v)
					}
				}
			}
			continue
		}
		if lit, elt := e.literalOf(parent, child); lit != nil {
			if f := e.structField(lit, elt); f != nil {
				fields = append(fields, f)
			}
		}
	}
	return fields
}

func closerResult(t types.Type) types.Type {
	if tuple, ok := t.(*types.Tuple); ok {
		for _, slot := range typeutil.CloserSlots(tuple) {
			return tuple.At(slot).Type()
		}
		return nil
	}
	return t
}

// leaveOpen inspects a leaveOpen bool parameter or an options struct with a
// LeaveOpen field. A constant false, or an options literal without the field,
// hands ownership to the callee; true or an unknown value keeps it with the
// caller.
func (e *Engine) leaveOpen(call *ast.CallExpr, sig *types.Signature) (transfers, found bool) {
	params := sig.Params()
	for i := range params.Len() {
		p := params.At(i)

		if strings.EqualFold(p.Name(), "leaveOpen") && typeutil.IsBool(p.Type()) {
			if i >= len(call.Args) {
				return false, true
			}
			v, known := e.constBool(call.Args[i])
			return known && !v, true
		}

		st := typeutil.StructOf(p.Type())
		if st == nil || !hasBoolField(st, "LeaveOpen") || i >= len(call.Args) {
			continue
		}
		lit, ok := compositeOf(call.Args[i])
		if !ok {
			return false, true
		}
		for _, elt := range lit.Elts {
			kv, ok := elt.(*ast.KeyValueExpr)
			if !ok {
				return false, true
			}
			if key, ok := kv.Key.(*ast.Ident); ok && key.Name == "LeaveOpen" {
				v, known := e.constBool(kv.Value)
				return known && !v, true
			}
		}
		return true, true
	}
	return false, false
}

// disposeHandler inspects a disposeHandler or closeHandler bool parameter.
// Only a constant true hands ownership to the callee.
func (e *Engine) disposeHandler(call *ast.CallExpr, sig *types.Signature) (transfers, found bool) {
	params := sig.Params()
	for i := range params.Len() {
		p := params.At(i)
		if !typeutil.IsBool(p.Type()) {
			continue
		}
		if !strings.EqualFold(p.Name(), "disposeHandler") && !strings.EqualFold(p.Name(), "closeHandler") {
			continue
		}
		if i >= len(call.Args) {
			return false, true
		}
		v, known := e.constBool(call.Args[i])
		return known && v, true
	}
	return false, false
}

func (e *Engine) constBool(expr ast.Expr) (value, known bool) {
	tv, ok := e.model.Pass.TypesInfo.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.Bool {
		return false, false
	}
	return constant.BoolVal(tv.Value), true
}

func compositeOf(expr ast.Expr) (*ast.CompositeLit, bool) {
	expr = astutil.Unparen(expr)
	if u, ok := expr.(*ast.UnaryExpr); ok {
		expr = astutil.Unparen(u.X)
	}
	lit, ok := expr.(*ast.CompositeLit)
	return lit, ok
}

func hasBoolField(st *types.Struct, name string) bool {
	for i := range st.NumFields() {
		f := st.Field(i)
		if f.Name() == name && typeutil.IsBool(f.Type()) {
			return true
		}
	}
	return false
}

// ClosesField reports whether the Close method of owner closes field, either
// in its own body, through methods of the same receiver it calls, or because
// Close is promoted from field itself.
func (e *Engine) ClosesField(s *recursion.Session, owner types.Type, field *types.Var) bool {
	named := typeutil.NamedOf(owner)
	if named == nil || field == nil {
		return false
	}

	compute := func() bool {
		obj, index, _ := types.LookupFieldOrMethod(types.NewPointer(named), true, named.Obj().Pkg(), "Close")
		closeFn, ok := obj.(*types.Func)
		if !ok {
			return false
		}
		if st := typeutil.StructOf(named); st != nil && len(index) > 1 && index[0] < st.NumFields() && st.Field(index[0]) == field {
			return true
		}
		decl := e.model.FuncDeclOf(closeFn)
		if decl == nil {
			return false
		}
		return e.bodyClosesField(s, decl, field, map[*ast.FuncDecl]struct{}{})
	}

	ident := e.model.DefIdent(field)
	if ident == nil {
		return compute()
	}
	return s.Memo(recursion.ClosesField, ident, compute)
}

func (e *Engine) bodyClosesField(s *recursion.Session, decl *ast.FuncDecl, field *types.Var, visited map[*ast.FuncDecl]struct{}) bool {
	if _, seen := visited[decl]; seen {
		return false
	}
	visited[decl] = struct{}{}

	found := false
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		if found {
			return false
		}
		switch x := n.(type) {
		case *ast.SelectorExpr:
			if e.model.VarOf(x) == field && e.Disposes(s, x) {
				found = true
				return false
			}
		case *ast.CallExpr:
			callee := e.calleeFunc(x)
			if callee == nil || callee.Signature().Recv() == nil {
				return true
			}
			if next := e.model.FuncDeclOf(callee); next != nil && next.Recv != nil && e.sameReceiver(decl, next) {
				if e.bodyClosesField(s, next, field, visited) {
					found = true
					return false
				}
			}
		}
		return true
	})
	return found
}

func (e *Engine) sameReceiver(a, b *ast.FuncDecl) bool {
	if a.Recv == nil || b.Recv == nil || len(a.Recv.List) == 0 || len(b.Recv.List) == 0 {
		return false
	}
	ta := typeutil.NamedOf(e.model.TypeOf(a.Recv.List[0].Type))
	tb := typeutil.NamedOf(e.model.TypeOf(b.Recv.List[0].Type))
	return ta != nil && tb != nil && ta.Origin() == tb.Origin()
}
