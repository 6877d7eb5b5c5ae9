package disposable

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"
	xtypeutil "golang.org/x/tools/go/types/typeutil"

	"github.com/mpyw/closerown/internal/typeutil"
)

// Target is an argument bound to a parameter of the function it is passed to.
type Target struct {
	Call  *ast.CallExpr
	Arg   ast.Expr   // the argument expression as written
	Param *types.Var // parameter of the declaration when visible, else of the signature
	Index int        // parameter ordinal
	Func  *types.Func
	Decl  ast.Node // *ast.FuncDecl or *ast.FuncLit; nil when the body is not visible
}

// Body returns the visible body of the callee, or nil.
func (t Target) Body() *ast.BlockStmt {
	switch d := t.Decl.(type) {
	case *ast.FuncDecl:
		return d.Body
	case *ast.FuncLit:
		return d.Body
	}
	return nil
}

// Targets returns the parameters that arg binds to in call. A single
// multi-value argument binds each closer slot to the parameter at that
// position; otherwise arg binds one parameter, with variadic arguments folded
// onto the last one.
func (e *Engine) Targets(call *ast.CallExpr, arg ast.Expr) []Target {
	pos := -1
	for i, a := range call.Args {
		if a == arg {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}

	sig, fn, decl := e.callee(call)
	if sig == nil {
		return nil
	}
	params := sig.Params()

	bind := func(i int) (Target, bool) {
		if params.Len() == 0 {
			return Target{}, false
		}
		if i >= params.Len() {
			if !sig.Variadic() {
				return Target{}, false
			}
			i = params.Len() - 1
		}
		return Target{Call: call, Arg: arg, Param: params.At(i), Index: i, Func: fn, Decl: decl}, true
	}

	if tuple, ok := e.model.TypeOf(arg).(*types.Tuple); ok && len(call.Args) == 1 {
		var out []Target
		for _, slot := range typeutil.CloserSlots(tuple) {
			if t, ok := bind(slot); ok {
				out = append(out, t)
			}
		}
		return out
	}

	if t, ok := bind(pos); ok {
		return []Target{t}
	}
	return nil
}

// callee resolves the signature, function object and visible declaration of
// the function invoked by call. Calls through function values and interface
// methods have a signature but no declaration.
func (e *Engine) callee(call *ast.CallExpr) (*types.Signature, *types.Func, ast.Node) {
	info := e.model.Pass.TypesInfo

	if lit, ok := astutil.Unparen(call.Fun).(*ast.FuncLit); ok {
		sig, _ := info.TypeOf(lit).(*types.Signature)
		return sig, nil, lit
	}

	fn := e.calleeFunc(call)
	if fn != nil {
		origin := fn.Origin()
		var decl ast.Node
		if d := e.model.FuncDeclOf(origin); d != nil && !isInterfaceMethod(origin) {
			decl = d
		}
		return origin.Signature(), fn, decl
	}

	if tv, ok := info.Types[call.Fun]; ok && !tv.IsType() {
		if sig, ok := tv.Type.Underlying().(*types.Signature); ok {
			if lit := e.funcLitOf(call.Fun); lit != nil {
				litSig, _ := info.TypeOf(lit).(*types.Signature)
				return litSig, nil, lit
			}
			return sig, nil, nil
		}
	}
	return nil, nil, nil
}

// funcLitOf follows a function-valued local to the literal assigned to it when
// that literal is its only value.
func (e *Engine) funcLitOf(fun ast.Expr) *ast.FuncLit {
	v := e.model.VarOf(fun)
	if v == nil || !e.model.IsLocal(v) {
		return nil
	}
	assigns := e.model.Assignments(v)
	if len(assigns) != 1 {
		return nil
	}
	lit, _ := astutil.Unparen(assigns[0].Value).(*ast.FuncLit)
	return lit
}

func (e *Engine) calleeFunc(call *ast.CallExpr) *types.Func {
	fn, _ := xtypeutil.Callee(e.model.Pass.TypesInfo, call).(*types.Func)
	return fn
}

func isInterfaceMethod(fn *types.Func) bool {
	recv := fn.Signature().Recv()
	if recv == nil {
		return false
	}
	return types.IsInterface(recv.Type())
}

// paramUsages returns the reads of the target parameter inside its body.
func (e *Engine) paramUsages(t Target) []*ast.Ident {
	body := t.Body()
	if body == nil || t.Param == nil {
		return nil
	}
	return e.model.UsagesIn(t.Param, body)
}
