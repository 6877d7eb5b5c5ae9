package symbol

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ast/astutil"
)

// Assignment is one place where a variable receives a value.
type Assignment struct {
	Pos   token.Pos // position of the assigning statement or literal
	Value ast.Expr  // the assigned expression; nil for a zero-value declaration
	Index int       // result slot when Value produces a tuple, otherwise -1
	Node  ast.Node  // *ast.AssignStmt, *ast.ValueSpec, *ast.CompositeLit or *ast.RangeStmt
	Range bool      // Value is the ranged-over expression, not the element itself
}

// Assignments returns every assignment to obj in source order.
func (m *Model) Assignments(obj types.Object) []Assignment {
	return m.assigns[obj]
}

// AssignmentsBefore returns the assignments to obj positioned before pos.
// A pos of token.NoPos returns all of them.
func (m *Model) AssignmentsBefore(obj types.Object, pos token.Pos) []Assignment {
	all := m.assigns[obj]
	if pos == token.NoPos {
		return all
	}
	var out []Assignment
	for _, a := range all {
		if a.Pos < pos {
			out = append(out, a)
		}
	}
	return out
}

// Usages returns the identifiers reading obj, in source order.
// Plain assignment targets are not usages.
func (m *Model) Usages(obj types.Object) []*ast.Ident {
	return m.uses[obj]
}

// UsagesIn returns the usages of obj located inside scope.
func (m *Model) UsagesIn(obj types.Object, scope ast.Node) []*ast.Ident {
	if scope == nil {
		return m.uses[obj]
	}
	var out []*ast.Ident
	for _, u := range m.uses[obj] {
		if scope.Pos() <= u.Pos() && u.End() <= scope.End() {
			out = append(out, u)
		}
	}
	return out
}

func (m *Model) indexAssignStmt(assign *ast.AssignStmt) {
	if assign.Tok != token.ASSIGN && assign.Tok != token.DEFINE {
		return
	}
	tuple := len(assign.Rhs) == 1 && len(assign.Lhs) > 1
	for i, lhs := range assign.Lhs {
		obj := m.AssignTarget(lhs)
		if obj == nil {
			continue
		}
		a := Assignment{Pos: assign.Pos(), Index: -1, Node: assign}
		switch {
		case tuple:
			a.Value = assign.Rhs[0]
			a.Index = i
		case i < len(assign.Rhs):
			a.Value = assign.Rhs[i]
		}
		m.assigns[obj] = append(m.assigns[obj], a)
	}
}

func (m *Model) indexValueSpec(spec *ast.ValueSpec) {
	tuple := len(spec.Values) == 1 && len(spec.Names) > 1
	for i, name := range spec.Names {
		obj := m.Pass.TypesInfo.Defs[name]
		if obj == nil {
			continue
		}
		a := Assignment{Pos: spec.Pos(), Index: -1, Node: spec}
		switch {
		case tuple:
			a.Value = spec.Values[0]
			a.Index = i
		case i < len(spec.Values):
			a.Value = spec.Values[i]
		}
		m.assigns[obj] = append(m.assigns[obj], a)
	}
}

func (m *Model) indexCompositeLit(lit *ast.CompositeLit) {
	st, ok := m.structOfLit(lit)
	if !ok {
		return
	}
	for i, elt := range lit.Elts {
		var field types.Object
		value := elt
		if kv, isKV := elt.(*ast.KeyValueExpr); isKV {
			key, isIdent := kv.Key.(*ast.Ident)
			if !isIdent {
				continue
			}
			field = m.Pass.TypesInfo.ObjectOf(key)
			value = kv.Value
		} else if i < st.NumFields() {
			field = st.Field(i)
		}
		if field == nil {
			continue
		}
		m.assigns[field] = append(m.assigns[field], Assignment{Pos: lit.Pos(), Value: value, Index: -1, Node: lit})
	}
}

func (m *Model) indexRangeStmt(rng *ast.RangeStmt) {
	if rng.Value == nil {
		return
	}
	obj := m.AssignTarget(rng.Value)
	if obj == nil {
		return
	}
	m.assigns[obj] = append(m.assigns[obj], Assignment{Pos: rng.Pos(), Value: rng.X, Index: -1, Node: rng, Range: true})
}

// AssignTarget resolves the object written by an assignment's left-hand side.
// Blank identifiers, index expressions and dereferences have no target.
func (m *Model) AssignTarget(lhs ast.Expr) types.Object {
	switch e := astutil.Unparen(lhs).(type) {
	case *ast.Ident:
		if e.Name == "_" {
			return nil
		}
		if obj := m.Pass.TypesInfo.Defs[e]; obj != nil {
			return obj
		}
		return m.Pass.TypesInfo.Uses[e]
	case *ast.SelectorExpr:
		if v := m.VarOf(e); v != nil {
			return v
		}
	}
	return nil
}

func (m *Model) structOfLit(lit *ast.CompositeLit) (*types.Struct, bool) {
	t := m.TypeOf(lit)
	if t == nil {
		return nil, false
	}
	st, ok := t.Underlying().(*types.Struct)
	return st, ok
}
