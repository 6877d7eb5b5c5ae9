package checker

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"
	xtypeutil "golang.org/x/tools/go/types/typeutil"

	"github.com/mpyw/closerown/internal/directives/ignore"
	"github.com/mpyw/closerown/internal/recursion"
	"github.com/mpyw/closerown/internal/typeutil"
)

// checkCreated reports a local declared by ident that holds a created closer
// no usage takes care of.
func (c *Checker) checkCreated(s *recursion.Session, ident *ast.Ident, r *funcResult) {
	v, ok := c.model.Pass.TypesInfo.Defs[ident].(*types.Var)
	if !ok || !c.model.IsLocal(v) || !typeutil.IsCloser(v.Type()) {
		return
	}
	if c.engine.ShouldDispose(s, v) {
		r.report(ident.Pos(), ignore.Created, fmt.Sprintf("closer assigned to %q is never closed", v.Name()))
	}
}

// checkOwned reports parameters of decl that acquire ownership but are never
// closed or handed on.
func (c *Checker) checkOwned(s *recursion.Session, decl *ast.FuncDecl, r *funcResult) {
	if decl.Type.Params == nil {
		return
	}
	classifier := c.engine.Classifier()
	for _, field := range decl.Type.Params.List {
		for _, name := range field.Names {
			v, ok := c.model.Pass.TypesInfo.Defs[name].(*types.Var)
			if !ok || !classifier.IsAcquiredOwnership(v) {
				continue
			}
			if c.engine.ShouldDispose(s, v) {
				r.report(name.Pos(), ignore.Owned, fmt.Sprintf("parameter %q takes ownership but is never closed", v.Name()))
			}
		}
	}
}

// checkDiscarded reports a creation whose value nothing keeps.
func (c *Checker) checkDiscarded(s *recursion.Session, expr ast.Expr, r *funcResult) {
	if !c.isCandidate(expr) {
		return
	}

	parent, child := c.model.ParentSkipParens(expr)
	switch p := parent.(type) {
	case *ast.UnaryExpr:
		if p.Op == token.AND {
			return // reported at the address-of
		}
	case *ast.CallExpr:
		if c.isIdentityArg(p, child) {
			return // reported at the pass-through call
		}
	case *ast.AssignStmt, *ast.ValueSpec:
		if c.onlyLocalSinks(parent, child) {
			return // the created rule looks at the local
		}
	}

	if !c.engine.IsCreation(s, expr) {
		return
	}
	if c.engine.DisposedByReturnValue(s, expr) {
		return // the wrapper is reported instead
	}
	if c.engine.Ignores(s, expr) {
		r.report(expr.Pos(), ignore.Discarded, fmt.Sprintf("closer created by %s is discarded", c.creatorName(expr)))
	}
}

// isCandidate reports whether expr may produce a closer itself.
func (c *Checker) isCandidate(expr ast.Expr) bool {
	switch x := expr.(type) {
	case *ast.CallExpr:
		if tv, ok := c.model.Pass.TypesInfo.Types[x.Fun]; ok && tv.IsType() {
			return false // conversion
		}
		return len(typeutil.CloserSlots(c.model.TypeOf(x))) > 0
	case *ast.CompositeLit:
		return typeutil.IsCloser(c.model.TypeOf(x))
	case *ast.UnaryExpr:
		if x.Op != token.AND {
			return false
		}
		_, isLit := astutil.Unparen(x.X).(*ast.CompositeLit)
		return isLit && typeutil.IsCloser(c.model.TypeOf(x))
	}
	return false
}

func (c *Checker) isIdentityArg(call *ast.CallExpr, arg ast.Expr) bool {
	results := 1
	if tuple, ok := c.model.TypeOf(call).(*types.Tuple); ok {
		results = tuple.Len()
	}
	for slot := range results {
		if v, ok := c.engine.Values().IdentityArg(call, slot); ok && v.Expr == arg {
			return true
		}
	}
	return false
}

// onlyLocalSinks reports whether every closer slot of child lands in a named
// local variable.
func (c *Checker) onlyLocalSinks(parent ast.Node, child ast.Expr) bool {
	var lhs, rhs []ast.Expr
	switch p := parent.(type) {
	case *ast.AssignStmt:
		if p.Tok != token.ASSIGN && p.Tok != token.DEFINE {
			return false
		}
		lhs, rhs = p.Lhs, p.Rhs
	case *ast.ValueSpec:
		for _, name := range p.Names {
			lhs = append(lhs, name)
		}
		rhs = p.Values
	}

	var targets []ast.Expr
	switch {
	case len(rhs) == 1 && len(lhs) > 1 && rhs[0] == child:
		for _, slot := range typeutil.CloserSlots(c.model.TypeOf(child)) {
			if slot < len(lhs) {
				targets = append(targets, lhs[slot])
			}
		}
	default:
		for i, x := range rhs {
			if x == child && i < len(lhs) {
				targets = append(targets, lhs[i])
			}
		}
	}
	if len(targets) == 0 {
		return false
	}
	for _, t := range targets {
		id, ok := astutil.Unparen(t).(*ast.Ident)
		if !ok || id.Name == "_" {
			return false
		}
		if !c.model.IsLocal(c.model.VarOf(id)) {
			return false
		}
	}
	return true
}

// creatorName renders the function or literal producing expr.
func (c *Checker) creatorName(expr ast.Expr) string {
	switch x := expr.(type) {
	case *ast.CallExpr:
		if fn, ok := xtypeutil.Callee(c.model.Pass.TypesInfo, x).(*types.Func); ok {
			return c.funcName(fn)
		}
		if id, ok := astutil.Unparen(x.Fun).(*ast.Ident); ok {
			return id.Name
		}
		return "a function call"
	case *ast.UnaryExpr:
		return "&" + c.typeName(c.model.TypeOf(x.X)) + "{}"
	}
	return c.typeName(c.model.TypeOf(expr)) + "{}"
}

func (c *Checker) funcName(fn *types.Func) string {
	sig := fn.Signature()
	if recv := sig.Recv(); recv != nil {
		if ptr, ok := types.Unalias(recv.Type()).(*types.Pointer); ok {
			return fmt.Sprintf("(*%s).%s", c.typeName(ptr.Elem()), fn.Name())
		}
		return c.typeName(recv.Type()) + "." + fn.Name()
	}
	if fn.Pkg() == nil || fn.Pkg() == c.model.Pass.Pkg {
		return fn.Name()
	}
	return fn.Pkg().Name() + "." + fn.Name()
}

func (c *Checker) typeName(t types.Type) string {
	return types.TypeString(t, func(p *types.Package) string {
		if p == c.model.Pass.Pkg {
			return ""
		}
		return p.Name()
	})
}

// checkInjected reports closing a closer the function was handed but does not
// own.
func (c *Checker) checkInjected(sel *ast.SelectorExpr, r *funcResult) {
	x := astutil.Unparen(sel.X)
	v := c.model.VarOf(x)
	if v == nil || !typeutil.IsCloser(c.model.TypeOf(x)) {
		return
	}
	if _, isSel := x.(*ast.SelectorExpr); isSel && !c.model.IsPackageLevel(v) {
		return // field of a value
	}
	if c.engine.Classifier().IsInjected(v) {
		r.report(sel.Sel.Pos(), ignore.Injected, fmt.Sprintf("do not close injected %q", v.Name()))
	}
}

// checkCached reports a function returning created closers on some paths
// and cached ones on others.
func (c *Checker) checkCached(decl *ast.FuncDecl, r *funcResult) {
	if c.ssaProg == nil {
		return
	}
	fn := c.ssaProg.Function(decl)
	if fn == nil {
		return
	}
	if c.tracer.ReturnOrigins(fn).Mixed() {
		r.report(decl.Name.Pos(), ignore.Cached, fmt.Sprintf("%s returns both created and cached closers", decl.Name.Name))
	}
}
