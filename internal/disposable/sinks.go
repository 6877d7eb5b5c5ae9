package disposable

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/mpyw/closerown/internal/typeutil"
)

// sinkKind classifies the left-hand side receiving a value.
type sinkKind int

const (
	sinkBlank sinkKind = iota
	sinkLocal          // local variable or parameter
	sinkResult         // named result
	sinkField          // struct field or package-level variable
	sinkElement        // m[k], s[i] or *p
)

// sink is one destination of an assignment or declaration.
type sink struct {
	kind sinkKind
	obj  types.Object // nil for blank and element sinks
	lhs  ast.Expr
}

// sinks returns the destinations that receive child's closer values when
// parent is an assignment or declaration with child on the right-hand side.
// A multi-value child yields one sink per closer slot.
func (e *Engine) sinks(parent ast.Node, child ast.Expr) ([]sink, bool) {
	var lhs []ast.Expr
	var rhs []ast.Expr

	switch p := parent.(type) {
	case *ast.AssignStmt:
		if p.Tok != token.ASSIGN && p.Tok != token.DEFINE {
			return nil, false
		}
		lhs, rhs = p.Lhs, p.Rhs
	case *ast.ValueSpec:
		for _, name := range p.Names {
			lhs = append(lhs, name)
		}
		rhs = p.Values
	default:
		return nil, false
	}

	pos := -1
	for i, r := range rhs {
		if r == child {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, false
	}

	if len(rhs) == 1 && len(lhs) > 1 {
		var out []sink
		for _, slot := range typeutil.CloserSlots(e.model.TypeOf(child)) {
			if slot < len(lhs) {
				out = append(out, e.sinkOf(lhs[slot]))
			}
		}
		return out, true
	}
	if pos < len(lhs) {
		return []sink{e.sinkOf(lhs[pos])}, true
	}
	return nil, false
}

func (e *Engine) sinkOf(lhs ast.Expr) sink {
	switch x := astutil.Unparen(lhs).(type) {
	case *ast.Ident:
		if x.Name == "_" {
			return sink{kind: sinkBlank, lhs: lhs}
		}
	case *ast.IndexExpr, *ast.IndexListExpr, *ast.StarExpr:
		return sink{kind: sinkElement, lhs: lhs}
	}

	obj := e.model.AssignTarget(lhs)
	v, ok := obj.(*types.Var)
	if !ok {
		return sink{kind: sinkElement, lhs: lhs}
	}

	switch {
	case v.IsField(), e.model.IsPackageLevel(v):
		return sink{kind: sinkField, obj: v, lhs: lhs}
	case e.model.IsResult(v):
		return sink{kind: sinkResult, obj: v, lhs: lhs}
	}
	return sink{kind: sinkLocal, obj: v, lhs: lhs}
}

// parentOf returns the first non-paren ancestor of expr and the outermost
// parenthesised form of expr under it.
func (e *Engine) parentOf(expr ast.Expr) (ast.Node, ast.Expr) {
	return e.model.ParentSkipParens(expr)
}

// argIndex returns the position of arg in call.Args, or -1.
func argIndex(call *ast.CallExpr, arg ast.Expr) int {
	for i, a := range call.Args {
		if a == arg {
			return i
		}
	}
	return -1
}

// isIdentityArg reports whether call is a generic pass-through forwarding arg
// to one of its results.
func (e *Engine) isIdentityArg(call *ast.CallExpr, arg ast.Expr) bool {
	results := 1
	if tuple, ok := e.model.TypeOf(call).(*types.Tuple); ok {
		results = tuple.Len()
	}
	for slot := range results {
		if v, ok := e.values.IdentityArg(call, slot); ok && v.Expr == arg {
			return true
		}
	}
	return false
}

// structField returns the field a composite literal element initialises, or
// nil when the literal is not a struct literal.
func (e *Engine) structField(lit *ast.CompositeLit, elt ast.Expr) *types.Var {
	st := typeutil.StructOf(e.model.TypeOf(lit))
	if st == nil {
		return nil
	}
	if kv, ok := elt.(*ast.KeyValueExpr); ok {
		key, ok := kv.Key.(*ast.Ident)
		if !ok {
			return nil
		}
		v, _ := e.model.Pass.TypesInfo.ObjectOf(key).(*types.Var)
		return v
	}
	for i, x := range lit.Elts {
		if x == elt && i < st.NumFields() {
			return st.Field(i)
		}
	}
	return nil
}

// literalOf returns the composite literal directly containing child as an
// element or key-value value, together with the element node.
func (e *Engine) literalOf(parent ast.Node, child ast.Expr) (*ast.CompositeLit, ast.Expr) {
	switch p := parent.(type) {
	case *ast.CompositeLit:
		return p, child
	case *ast.KeyValueExpr:
		if lit, ok := e.model.Parent(p).(*ast.CompositeLit); ok {
			return lit, p
		}
	}
	return nil, nil
}
