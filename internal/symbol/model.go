package symbol

import (
	"go/ast"
	"go/token"
	"go/types"
	"sort"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/go/ast/inspector"
)

// Model is a read-only view over one analysis pass.
// All indexes are built by New; afterwards a Model is safe for concurrent use.
type Model struct {
	Pass *analysis.Pass

	parents map[ast.Node]ast.Node
	defs    map[types.Object]*ast.Ident
	uses    map[types.Object][]*ast.Ident
	assigns map[types.Object][]Assignment
}

// New builds the parent map and the usage and assignment indexes.
func New(pass *analysis.Pass, insp *inspector.Inspector) *Model {
	m := &Model{
		Pass:    pass,
		parents: make(map[ast.Node]ast.Node),
		defs:    make(map[types.Object]*ast.Ident),
		uses:    make(map[types.Object][]*ast.Ident),
		assigns: make(map[types.Object][]Assignment),
	}

	insp.WithStack(nil, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}
		if len(stack) >= 2 {
			m.parents[n] = stack[len(stack)-2]
		}
		switch node := n.(type) {
		case *ast.AssignStmt:
			m.indexAssignStmt(node)
		case *ast.ValueSpec:
			m.indexValueSpec(node)
		case *ast.CompositeLit:
			m.indexCompositeLit(node)
		case *ast.RangeStmt:
			m.indexRangeStmt(node)
		}
		return true
	})

	for ident, obj := range pass.TypesInfo.Defs {
		if obj != nil {
			m.defs[obj] = ident
		}
	}
	for ident, obj := range pass.TypesInfo.Uses {
		if _, ok := obj.(*types.Var); !ok {
			continue
		}
		if m.isWrite(ident) {
			continue
		}
		m.uses[obj] = append(m.uses[obj], ident)
	}
	for _, idents := range m.uses {
		sort.Slice(idents, func(i, j int) bool { return idents[i].Pos() < idents[j].Pos() })
	}
	for _, list := range m.assigns {
		sort.Slice(list, func(i, j int) bool { return list[i].Pos < list[j].Pos })
	}

	return m
}

// Parent returns the syntactic parent of n, or nil for a file.
func (m *Model) Parent(n ast.Node) ast.Node {
	return m.parents[n]
}

// ParentSkipParens returns the first ancestor of n that is not a ParenExpr,
// together with the outermost parenthesised expression wrapping n.
func (m *Model) ParentSkipParens(n ast.Expr) (ast.Node, ast.Expr) {
	child := n
	parent := m.parents[n]
	for {
		paren, ok := parent.(*ast.ParenExpr)
		if !ok {
			return parent, child
		}
		child = paren
		parent = m.parents[paren]
	}
}

// ObjectOf resolves an expression to the object it denotes.
// Only identifiers and selectors denote objects; other expressions yield nil.
func (m *Model) ObjectOf(expr ast.Expr) types.Object {
	switch e := astutil.Unparen(expr).(type) {
	case *ast.Ident:
		return m.Pass.TypesInfo.ObjectOf(e)
	case *ast.SelectorExpr:
		if sel := m.Pass.TypesInfo.Selections[e]; sel != nil {
			return sel.Obj()
		}
		return m.Pass.TypesInfo.ObjectOf(e.Sel)
	}
	return nil
}

// VarOf resolves an expression to a variable (local, parameter, field or global).
func (m *Model) VarOf(expr ast.Expr) *types.Var {
	v, _ := m.ObjectOf(expr).(*types.Var)
	return v
}

// TypeOf returns the type of expr, or nil when unknown.
func (m *Model) TypeOf(expr ast.Expr) types.Type {
	return m.Pass.TypesInfo.TypeOf(expr)
}

// DefIdent returns the identifier declaring obj in the analysed package.
func (m *Model) DefIdent(obj types.Object) *ast.Ident {
	return m.defs[obj]
}

// FileOf finds the file that contains the given position.
func (m *Model) FileOf(pos token.Pos) *ast.File {
	for _, f := range m.Pass.Files {
		if f.Pos() <= pos && pos < f.End() {
			return f
		}
	}
	return nil
}

// DeclOf returns the innermost syntax node declaring obj in the analysed
// package: a *ast.FuncDecl for functions, and the declaring *ast.AssignStmt,
// *ast.ValueSpec, *ast.Field or *ast.RangeStmt for variables. It returns nil
// for objects declared elsewhere.
func (m *Model) DeclOf(obj types.Object) ast.Node {
	if obj == nil || obj.Pkg() != m.Pass.Pkg || !obj.Pos().IsValid() {
		return nil
	}
	f := m.FileOf(obj.Pos())
	if f == nil {
		return nil
	}

	path, _ := astutil.PathEnclosingInterval(f, obj.Pos(), obj.Pos())
	for _, n := range path {
		switch n.(type) {
		case *ast.FuncDecl:
			if _, isFunc := obj.(*types.Func); isFunc {
				return n
			}
			return nil
		case *ast.AssignStmt, *ast.ValueSpec, *ast.Field, *ast.RangeStmt:
			return n
		}
	}
	return nil
}

// FuncDeclOf finds the FuncDecl for a types.Func in the analysed package.
func (m *Model) FuncDeclOf(fn *types.Func) *ast.FuncDecl {
	if fn == nil {
		return nil
	}
	fn = fn.Origin()
	decl, _ := m.DeclOf(fn).(*ast.FuncDecl)
	if decl == nil || decl.Body == nil {
		return nil
	}
	return decl
}

// EnclosingFunc returns the innermost *ast.FuncDecl or *ast.FuncLit containing n.
func (m *Model) EnclosingFunc(n ast.Node) ast.Node {
	for p := m.parents[n]; p != nil; p = m.parents[p] {
		switch p.(type) {
		case *ast.FuncDecl, *ast.FuncLit:
			return p
		}
	}
	return nil
}

// OutermostFunc returns the top-level *ast.FuncDecl containing n.
func (m *Model) OutermostFunc(n ast.Node) *ast.FuncDecl {
	for p := m.parents[n]; p != nil; p = m.parents[p] {
		if decl, ok := p.(*ast.FuncDecl); ok {
			return decl
		}
	}
	return nil
}

// IsAssignable reports whether a value of type t is assignable to target.
func (m *Model) IsAssignable(t, target types.Type) bool {
	if t == nil || target == nil {
		return false
	}
	return types.AssignableTo(t, target)
}

// IsAccessibleAt reports whether obj can be referenced from code at pos.
// Every object of the analysed package is accessible to its own code.
func (m *Model) IsAccessibleAt(pos token.Pos, obj types.Object) bool {
	if obj == nil {
		return false
	}
	if obj.Exported() || obj.Pkg() == nil {
		return true
	}
	return m.FileOf(pos) != nil && obj.Pkg() == m.Pass.Pkg
}

// IsLocal reports whether v is a local variable that is not a parameter.
func (m *Model) IsLocal(v *types.Var) bool {
	if v == nil || v.IsField() || v.Pkg() == nil {
		return false
	}
	if v.Parent() == nil || v.Parent() == v.Pkg().Scope() {
		return false
	}
	return !m.IsParam(v)
}

// IsParam reports whether v is a parameter, named result or receiver of a
// function declared in the analysed package.
func (m *Model) IsParam(v *types.Var) bool {
	if v == nil || v.IsField() {
		return false
	}
	field, ok := m.DeclOf(v).(*ast.Field)
	if !ok {
		return false
	}
	_, inList := m.parents[field].(*ast.FieldList)
	if !inList {
		return false
	}
	_, isFunc := m.parents[m.parents[field]].(*ast.FuncType)
	return isFunc || m.isReceiverList(m.parents[field])
}

// IsResult reports whether v is a named result of a function.
func (m *Model) IsResult(v *types.Var) bool {
	field, ok := m.DeclOf(v).(*ast.Field)
	if !ok {
		return false
	}
	list, ok := m.parents[field].(*ast.FieldList)
	if !ok {
		return false
	}
	fn, ok := m.parents[list].(*ast.FuncType)
	return ok && fn.Results == list
}

func (m *Model) isReceiverList(n ast.Node) bool {
	decl, ok := m.parents[n].(*ast.FuncDecl)
	return ok && decl.Recv == n
}

// IsPackageLevel reports whether v is a package-level variable.
func (m *Model) IsPackageLevel(v *types.Var) bool {
	return v != nil && !v.IsField() && v.Pkg() != nil && v.Parent() == v.Pkg().Scope()
}

// ParamIndex returns the ordinal of v in the signature of fn, or -1.
func ParamIndex(fn *types.Func, v *types.Var) int {
	if fn == nil || v == nil {
		return -1
	}
	params := fn.Signature().Params()
	for i := range params.Len() {
		if params.At(i) == v {
			return i
		}
	}
	return -1
}

// FuncOfParam returns the function declaring parameter v in the analysed
// package, together with the parameter's ordinal.
func (m *Model) FuncOfParam(v *types.Var) (*types.Func, int) {
	field, ok := m.DeclOf(v).(*ast.Field)
	if !ok {
		return nil, -1
	}
	for p := m.parents[field]; p != nil; p = m.parents[p] {
		decl, ok := p.(*ast.FuncDecl)
		if !ok {
			if _, isLit := p.(*ast.FuncLit); isLit {
				return nil, -1
			}
			continue
		}
		fn, _ := m.Pass.TypesInfo.Defs[decl.Name].(*types.Func)
		return fn, ParamIndex(fn, v)
	}
	return nil, -1
}

// isWrite reports whether ident is the left-hand side of a plain assignment.
func (m *Model) isWrite(ident *ast.Ident) bool {
	assign, ok := m.parents[ident].(*ast.AssignStmt)
	if !ok {
		return false
	}
	if assign.Tok != token.ASSIGN && assign.Tok != token.DEFINE {
		return false
	}
	for _, lhs := range assign.Lhs {
		if lhs == ident {
			return true
		}
	}
	return false
}
