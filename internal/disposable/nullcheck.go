package disposable

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"
)

// isNilComparison reports whether b compares something with nil.
func (e *Engine) isNilComparison(b *ast.BinaryExpr) bool {
	if b.Op != token.EQL && b.Op != token.NEQ {
		return false
	}
	return e.isNil(b.X) || e.isNil(b.Y)
}

func (e *Engine) isNil(expr ast.Expr) bool {
	tv, ok := e.model.Pass.TypesInfo.Types[astutil.Unparen(expr)]
	return ok && tv.IsNil()
}

// IsNilCompared reports whether u is only tested for nil: x == nil, nil != x
// or reflect.ValueOf(x).IsNil().
func (e *Engine) IsNilCompared(u ast.Expr) bool {
	parent, _ := e.parentOf(u)
	switch p := parent.(type) {
	case *ast.BinaryExpr:
		return e.isNilComparison(p)
	case *ast.CallExpr:
		return e.isReflectIsNil(p)
	}
	return false
}

// isReflectIsNil reports whether call is reflect.ValueOf(x) used as the
// receiver of IsNil.
func (e *Engine) isReflectIsNil(call *ast.CallExpr) bool {
	fn := e.calleeFunc(call)
	if fn == nil || fn.Pkg() == nil || fn.Pkg().Path() != "reflect" || fn.Name() != "ValueOf" {
		return false
	}
	sel, ok := e.model.Parent(call).(*ast.SelectorExpr)
	return ok && sel.Sel.Name == "IsNil"
}

// nilTest describes what a condition proves about obj when it holds.
type nilTest int

const (
	provesNothing nilTest = iota
	provesNil
	provesNonNil
)

// testsNil evaluates cond for obj. && chains prove what any conjunct proves
// when the whole condition holds; || chains prove what every disjunct proves.
func (e *Engine) testsNil(cond ast.Expr, obj types.Object) nilTest {
	switch c := astutil.Unparen(cond).(type) {
	case *ast.BinaryExpr:
		switch c.Op {
		case token.LAND:
			if r := e.testsNil(c.X, obj); r != provesNothing {
				return r
			}
			return e.testsNil(c.Y, obj)
		case token.LOR:
			l, r := e.testsNil(c.X, obj), e.testsNil(c.Y, obj)
			if l == r {
				return l
			}
			return provesNothing
		case token.EQL, token.NEQ:
			var other ast.Expr
			switch {
			case e.isNil(c.Y):
				other = c.X
			case e.isNil(c.X):
				other = c.Y
			default:
				return provesNothing
			}
			if e.model.ObjectOf(other) != obj {
				return provesNothing
			}
			if c.Op == token.EQL {
				return provesNil
			}
			return provesNonNil
		}
	case *ast.UnaryExpr:
		if c.Op == token.NOT {
			switch e.testsNil(c.X, obj) {
			case provesNil:
				return provesNonNil
			case provesNonNil:
				return provesNil
			}
		}
	case *ast.CallExpr:
		// reflect.ValueOf(x).IsNil()
		sel, ok := astutil.Unparen(c.Fun).(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "IsNil" {
			return provesNothing
		}
		inner, ok := astutil.Unparen(sel.X).(*ast.CallExpr)
		if !ok || !e.isReflectIsNil(inner) || len(inner.Args) != 1 {
			return provesNothing
		}
		if e.model.ObjectOf(inner.Args[0]) == obj {
			return provesNil
		}
	}
	return provesNothing
}

// IsNilGuarded reports whether n only runs while obj is nil: inside the body
// of an if whose condition proves obj nil, or after an early exit taken when
// obj is non-nil.
func (e *Engine) IsNilGuarded(obj types.Object, n ast.Node) bool {
	for child, p := n, e.model.Parent(n); p != nil; child, p = p, e.model.Parent(p) {
		switch x := p.(type) {
		case *ast.IfStmt:
			if x.Body == child && e.testsNil(x.Cond, obj) == provesNil {
				return true
			}
			if x.Else == child && e.testsNil(x.Cond, obj) == provesNonNil {
				return true
			}
		case *ast.BlockStmt:
			for _, stmt := range x.List {
				if stmt.Pos() >= child.Pos() {
					break
				}
				ifStmt, ok := stmt.(*ast.IfStmt)
				if !ok || ifStmt.Else != nil || !terminates(ifStmt.Body) {
					continue
				}
				if e.testsNil(ifStmt.Cond, obj) == provesNonNil {
					return true
				}
			}
		case *ast.FuncDecl, *ast.FuncLit:
			return false
		}
	}
	return false
}

// terminates reports whether a block always leaves the enclosing flow.
func terminates(body *ast.BlockStmt) bool {
	if len(body.List) == 0 {
		return false
	}
	switch last := body.List[len(body.List)-1].(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.BranchStmt:
		return last.Tok == token.CONTINUE || last.Tok == token.BREAK || last.Tok == token.GOTO
	case *ast.ExprStmt:
		if call, ok := last.X.(*ast.CallExpr); ok {
			if id, ok := call.Fun.(*ast.Ident); ok && id.Name == "panic" {
				return true
			}
		}
	}
	return false
}
