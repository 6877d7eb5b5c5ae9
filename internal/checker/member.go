package checker

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"github.com/mpyw/closerown/internal/directives/ignore"
	"github.com/mpyw/closerown/internal/recursion"
	"github.com/mpyw/closerown/internal/typeutil"
	"github.com/mpyw/closerown/internal/values"
)

// fieldWrite records a created or injected closer landing in a field of this
// package.
type fieldWrite struct {
	field    *types.Var
	pos      token.Pos
	injected bool
}

// collectAssignWrites records fields receiving a created or injected closer
// in assign.
func (c *Checker) collectAssignWrites(s *recursion.Session, assign *ast.AssignStmt, r *funcResult) {
	if assign.Tok != token.ASSIGN {
		return
	}
	for lhs, v := range c.assignedValues(assign) {
		field := c.model.VarOf(lhs)
		if field != nil {
			field = field.Origin()
		}
		if !c.isMemberField(field) {
			continue
		}
		c.recordWrite(s, field, v, lhs.Pos(), r)
	}
}

// collectLiteralWrites records fields of a struct literal initialised with a
// created or injected closer.
func (c *Checker) collectLiteralWrites(s *recursion.Session, lit *ast.CompositeLit, r *funcResult) {
	st := typeutil.StructOf(c.model.TypeOf(lit))
	if st == nil {
		return
	}
	for i, elt := range lit.Elts {
		var field *types.Var
		value := elt
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			key, ok := kv.Key.(*ast.Ident)
			if !ok {
				continue
			}
			field, _ = c.model.Pass.TypesInfo.ObjectOf(key).(*types.Var)
			value = kv.Value
		} else if i < st.NumFields() {
			field = st.Field(i)
		}
		if field != nil {
			field = field.Origin()
		}
		if !c.isMemberField(field) {
			continue
		}
		c.recordWrite(s, field, values.Of(value), value.Pos(), r)
	}
}

func (c *Checker) recordWrite(s *recursion.Session, field *types.Var, v values.Value, pos token.Pos, r *funcResult) {
	if c.engine.IsCreationAt(s, v) {
		r.fields = append(r.fields, fieldWrite{field: field, pos: pos})
	}
	if c.isInjectedValue(s, v) {
		r.fields = append(r.fields, fieldWrite{field: field, pos: pos, injected: true})
	}
}

// isInjectedValue reports whether some origin of v is a borrowed parameter or
// package variable.
func (c *Checker) isInjectedValue(s *recursion.Session, v values.Value) bool {
	classifier := c.engine.Classifier()
	for leaf := range c.engine.Values().Recursive(s, v) {
		if obj := c.model.VarOf(leaf.Expr); obj != nil && classifier.IsInjected(obj) {
			return true
		}
	}
	return false
}

// isMemberField reports whether the member rule decides ownership of field:
// an unexported closer field declared in this package.
func (c *Checker) isMemberField(field *types.Var) bool {
	return field != nil &&
		field.IsField() &&
		!field.Exported() &&
		field.Pkg() == c.model.Pass.Pkg &&
		typeutil.IsCloser(field.Type())
}

// checkMembers reports, once per field, fields holding created closers whose
// owning type never closes them.
func (c *Checker) checkMembers(ctx context.Context, writes []fieldWrite) []Diagnostic {
	s := recursion.Borrow(ctx, nil)
	defer s.Release()

	owners := c.fieldOwners()
	seen := make(map[*types.Var]bool)
	var diags []Diagnostic

	for _, w := range writes {
		if w.injected || seen[w.field] {
			continue
		}
		seen[w.field] = true

		owner := owners[w.field]
		ident := c.model.DefIdent(w.field)
		if owner == nil || ident == nil {
			continue
		}

		pos := ident.Pos()
		ptr := types.NewPointer(owner)
		if !typeutil.IsCloser(ptr) {
			diags = append(diags, Diagnostic{
				Pos:     pos,
				Checker: ignore.Member,
				Message: fmt.Sprintf("type %s holds a created closer in field %q but does not implement io.Closer", owner.Obj().Name(), w.field.Name()),
			})
			continue
		}
		if !c.engine.ClosesField(s, ptr, w.field) {
			diags = append(diags, Diagnostic{
				Pos:     pos,
				Checker: ignore.Member,
				Message: fmt.Sprintf("field %q is assigned a created closer but %s does not close it", w.field.Name(), c.closeName(owner)),
			})
		}
	}
	return diags
}

// checkMixed reports, once per field, fields assigned both created and
// injected closers, since no single owner can decide whether to close them.
func (c *Checker) checkMixed(writes []fieldWrite) []Diagnostic {
	type kinds struct{ created, injected bool }
	seen := make(map[*types.Var]*kinds)
	var order []*types.Var
	for _, w := range writes {
		k, ok := seen[w.field]
		if !ok {
			k = &kinds{}
			seen[w.field] = k
			order = append(order, w.field)
		}
		if w.injected {
			k.injected = true
		} else {
			k.created = true
		}
	}

	var diags []Diagnostic
	for _, field := range order {
		k := seen[field]
		ident := c.model.DefIdent(field)
		if !k.created || !k.injected || ident == nil {
			continue
		}
		diags = append(diags, Diagnostic{
			Pos:     ident.Pos(),
			Checker: ignore.Mixed,
			Message: fmt.Sprintf("field %q is assigned both created and injected closers", field.Name()),
		})
	}
	return diags
}

// fieldOwners maps the fields of every named struct type of the package to
// the type declaring them.
func (c *Checker) fieldOwners() map[*types.Var]*types.Named {
	owners := make(map[*types.Var]*types.Named)
	scope := c.model.Pass.Pkg.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			continue
		}
		for i := range st.NumFields() {
			owners[st.Field(i)] = named
		}
	}
	return owners
}

func (c *Checker) closeName(owner *types.Named) string {
	fn := typeutil.CloseMethod(owner)
	if fn == nil {
		return owner.Obj().Name() + ".Close"
	}
	if _, ptr := types.Unalias(fn.Signature().Recv().Type()).(*types.Pointer); ptr {
		return fmt.Sprintf("(*%s).Close", owner.Obj().Name())
	}
	return owner.Obj().Name() + ".Close"
}
