package values

import (
	"go/ast"
	"go/token"
	"go/types"
	"iter"

	"golang.org/x/tools/go/ast/astutil"
	xtypeutil "golang.org/x/tools/go/types/typeutil"

	"github.com/mpyw/closerown/internal/recursion"
	"github.com/mpyw/closerown/internal/symbol"
)

// Value is an expression together with the result slot it contributes.
type Value struct {
	Expr  ast.Expr
	Index int // tuple slot for multi-value calls, -1 otherwise
}

// Of wraps a single-valued expression.
func Of(expr ast.Expr) Value {
	return Value{Expr: expr, Index: -1}
}

// Slot returns the effective result index, treating -1 as 0.
func (v Value) Slot() int {
	if v.Index < 0 {
		return 0
	}
	return v.Index
}

// Resolver traces values backwards through assignments and calls.
type Resolver struct {
	model *symbol.Model
}

// New creates a Resolver over the given model.
func New(model *symbol.Model) *Resolver {
	return &Resolver{model: model}
}

// Values returns the expressions that directly produce v, one level back.
// An empty result means v cannot be traced further.
func (r *Resolver) Values(v Value) []Value {
	next, _ := r.step(v)
	return next
}

// Recursive yields the leaves reached by repeatedly applying Values until no
// new nodes appear. Each (node, slot) pair is visited at most once per call.
// A parameter is yielded as a leaf in addition to any values written to it
// inside the function body.
func (r *Resolver) Recursive(s *recursion.Session, start ...Value) iter.Seq[Value] {
	return func(yield func(Value) bool) {
		type visitKey struct {
			node  ast.Node
			index int
		}
		visited := make(map[visitKey]struct{})
		queue := append([]Value(nil), start...)

		for len(queue) > 0 {
			if s != nil && s.Canceled() {
				return
			}
			v := queue[0]
			queue = queue[1:]
			if v.Expr == nil {
				continue
			}
			k := visitKey{node: v.Expr, index: v.Index}
			if _, seen := visited[k]; seen {
				continue
			}
			visited[k] = struct{}{}

			next, leaf := r.step(v)
			if leaf && !yield(v) {
				return
			}
			queue = append(queue, next...)
		}
	}
}

// step performs one level of backward tracing. leaf reports that v itself is
// an origin: a creation, an external call, a parameter, or a variable with no
// visible writes.
func (r *Resolver) step(v Value) (next []Value, leaf bool) {
	switch e := astutil.Unparen(v.Expr).(type) {
	case *ast.Ident, *ast.SelectorExpr:
		return r.stepVar(e)
	case *ast.TypeAssertExpr:
		return []Value{Of(e.X)}, false
	case *ast.CallExpr:
		return r.stepCall(e, v)
	}
	return nil, true
}

func (r *Resolver) stepVar(expr ast.Expr) ([]Value, bool) {
	obj := r.model.VarOf(expr)
	if obj == nil {
		return nil, true
	}

	var assigns []symbol.Assignment
	if r.model.IsLocal(obj) || r.model.IsParam(obj) {
		assigns = r.model.AssignmentsBefore(obj, expr.Pos())
	}
	if len(assigns) == 0 {
		assigns = r.model.Assignments(obj)
	}

	var next []Value
	for _, a := range assigns {
		if a.Value == nil || a.Range {
			continue
		}
		next = append(next, Value{Expr: a.Value, Index: a.Index})
	}
	// Writes inside the body do not replace the argument on every path.
	if r.model.IsParam(obj) {
		return next, true
	}
	return next, len(assigns) == 0
}

func (r *Resolver) stepCall(call *ast.CallExpr, v Value) ([]Value, bool) {
	info := r.model.Pass.TypesInfo

	if tv, ok := info.Types[call.Fun]; ok && tv.IsType() && len(call.Args) == 1 {
		return []Value{Of(call.Args[0])}, false
	}

	if arg, ok := r.IdentityArg(call, v.Slot()); ok {
		return []Value{arg}, false
	}

	body, results := r.calleeBody(call)
	if body == nil {
		return nil, true
	}
	return r.returnedValues(body, results, v.Slot()), false
}

// calleeBody returns the body and result list of the function invoked by
// call when its source is visible in the analysed package.
func (r *Resolver) calleeBody(call *ast.CallExpr) (*ast.BlockStmt, *ast.FieldList) {
	if lit, ok := astutil.Unparen(call.Fun).(*ast.FuncLit); ok {
		return lit.Body, lit.Type.Results
	}
	fn, _ := xtypeutil.Callee(r.model.Pass.TypesInfo, call).(*types.Func)
	if fn == nil {
		return nil, nil
	}
	if sig := fn.Signature(); sig.Recv() != nil {
		if _, isIface := sig.Recv().Type().Underlying().(*types.Interface); isIface {
			return nil, nil
		}
	}
	decl := r.model.FuncDeclOf(fn)
	if decl == nil {
		return nil, nil
	}
	return decl.Body, decl.Type.Results
}

// returnedValues collects the operands at slot of every return statement in
// body, skipping nested function literals.
func (r *Resolver) returnedValues(body *ast.BlockStmt, results *ast.FieldList, slot int) []Value {
	named := namedResults(results)
	multi := results != nil && results.NumFields() > 1

	var out []Value
	ast.Inspect(body, func(n ast.Node) bool {
		switch stmt := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.ReturnStmt:
			switch {
			case len(stmt.Results) == 0:
				if slot < len(named) {
					out = append(out, Of(named[slot]))
				}
			case len(stmt.Results) == 1 && multi:
				out = append(out, Value{Expr: stmt.Results[0], Index: slot})
			case slot < len(stmt.Results):
				out = append(out, Of(stmt.Results[slot]))
			}
		}
		return true
	})
	return out
}

func namedResults(results *ast.FieldList) []*ast.Ident {
	if results == nil {
		return nil
	}
	var names []*ast.Ident
	for _, field := range results.List {
		names = append(names, field.Names...)
	}
	return names
}

// IdentityArg recognises generic pass-through calls whose result at slot has
// the type parameter of one of their parameters, e.g. Must[T any](v T, err
// error) T. It returns the argument feeding that parameter.
func (r *Resolver) IdentityArg(call *ast.CallExpr, slot int) (Value, bool) {
	fn, _ := xtypeutil.Callee(r.model.Pass.TypesInfo, call).(*types.Func)
	if fn == nil {
		return Value{}, false
	}
	sig := fn.Origin().Signature()
	if sig.TypeParams().Len() == 0 || slot >= sig.Results().Len() {
		return Value{}, false
	}
	resultParam, ok := types.Unalias(sig.Results().At(slot).Type()).(*types.TypeParam)
	if !ok {
		return Value{}, false
	}

	for i := range sig.Params().Len() {
		param, ok := types.Unalias(sig.Params().At(i).Type()).(*types.TypeParam)
		if !ok || param != resultParam {
			continue
		}
		return ArgumentFor(r.model.Pass.TypesInfo, call, i)
	}
	return Value{}, false
}

// ArgumentFor returns the argument bound to parameter i of call. A single
// multi-value argument is expanded into its result slots.
func ArgumentFor(info *types.Info, call *ast.CallExpr, i int) (Value, bool) {
	if len(call.Args) == 1 {
		if tuple, ok := info.TypeOf(call.Args[0]).(*types.Tuple); ok {
			if i < tuple.Len() {
				return Value{Expr: call.Args[0], Index: i}, true
			}
			return Value{}, false
		}
	}
	if i < len(call.Args) {
		return Of(call.Args[i]), true
	}
	return Value{}, false
}

// AssignedBefore returns the values assigned to obj before pos, one level back.
func (r *Resolver) AssignedBefore(obj types.Object, pos token.Pos) []Value {
	var out []Value
	for _, a := range r.model.AssignmentsBefore(obj, pos) {
		if a.Value == nil || a.Range {
			continue
		}
		out = append(out, Value{Expr: a.Value, Index: a.Index})
	}
	return out
}
