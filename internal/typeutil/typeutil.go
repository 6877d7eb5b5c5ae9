package typeutil

import (
	"go/ast"
	"go/token"
	"go/types"
	"sync"

	"golang.org/x/tools/go/analysis"
)

// closerIface is the structural equivalent of io.Closer. Building it here keeps
// the check independent of whether the analysed package imports "io".
var closerIface = func() *types.Interface {
	errType := types.Universe.Lookup("error").Type()
	results := types.NewTuple(types.NewVar(token.NoPos, nil, "", errType))
	sig := types.NewSignatureType(nil, nil, nil, nil, results, false)
	closeFn := types.NewFunc(token.NoPos, nil, "Close", sig)

	return types.NewInterfaceType([]*types.Func{closeFn}, nil).Complete()
}()

var closerCache sync.Map // types.Type -> bool

// IsCloser reports whether t implements io.Closer.
func IsCloser(t types.Type) bool {
	if t == nil {
		return false
	}
	if v, ok := closerCache.Load(t); ok {
		return v.(bool)
	}

	result := isCloser(t)
	closerCache.Store(t, result)

	return result
}

func isCloser(t types.Type) bool {
	if _, ok := t.Underlying().(*types.Tuple); ok {
		return false
	}
	if types.Implements(t, closerIface) {
		return true
	}

	// Interfaces embedding io.Closer are covered above; a pointer method set
	// only matters for addressable struct values.
	if _, isIface := t.Underlying().(*types.Interface); isIface {
		return false
	}
	if _, isPtr := t.(*types.Pointer); isPtr {
		return false
	}
	if _, isNamed := t.(*types.Named); !isNamed {
		return false
	}

	return types.Implements(types.NewPointer(t), closerIface)
}

// HasCloserResult reports whether t is a closer or a tuple containing one.
func HasCloserResult(t types.Type) bool {
	if tuple, ok := t.(*types.Tuple); ok {
		for i := range tuple.Len() {
			if IsCloser(tuple.At(i).Type()) {
				return true
			}
		}
		return false
	}

	return IsCloser(t)
}

// CloserSlots returns the indices of closer-typed values in t.
// A non-tuple closer type yields a single slot 0.
func CloserSlots(t types.Type) []int {
	if tuple, ok := t.(*types.Tuple); ok {
		var slots []int
		for i := range tuple.Len() {
			if IsCloser(tuple.At(i).Type()) {
				slots = append(slots, i)
			}
		}
		return slots
	}

	if IsCloser(t) {
		return []int{0}
	}

	return nil
}

// IsNamedType checks if the expression has the given named type.
// It handles pointer types automatically.
func IsNamedType(pass *analysis.Pass, expr ast.Expr, pkgPath, typeName string) bool {
	tv, ok := pass.TypesInfo.Types[expr]
	if !ok {
		return false
	}

	return isNamedTypeFromType(tv.Type, pkgPath, typeName)
}

// isNamedTypeFromType checks if the type matches the given package path and type name.
func isNamedTypeFromType(t types.Type, pkgPath, typeName string) bool {
	named := NamedOf(t)
	if named == nil {
		return false
	}

	obj := named.Obj()
	if obj == nil || obj.Pkg() == nil {
		return false
	}

	return obj.Pkg().Path() == pkgPath && obj.Name() == typeName
}

// NamedOf returns the named type behind t, looking through one pointer.
func NamedOf(t types.Type) *types.Named {
	named, _ := types.Unalias(UnwrapPointer(t)).(*types.Named)
	return named
}

// UnwrapPointer returns the element type if t is a pointer, otherwise returns t.
func UnwrapPointer(t types.Type) types.Type {
	if ptr, ok := types.Unalias(t).(*types.Pointer); ok {
		return ptr.Elem()
	}

	return t
}

// CloseMethod returns the Close method of t (or *t), if any.
func CloseMethod(t types.Type) *types.Func {
	named := NamedOf(t)
	if named == nil {
		return nil
	}

	obj, _, _ := types.LookupFieldOrMethod(types.NewPointer(named), true, named.Obj().Pkg(), "Close")
	fn, _ := obj.(*types.Func)

	return fn
}

// StructOf returns the struct underlying t, looking through one pointer.
func StructOf(t types.Type) *types.Struct {
	if t == nil {
		return nil
	}
	st, _ := UnwrapPointer(t).Underlying().(*types.Struct)
	return st
}

// IsBool reports whether t is a boolean type.
func IsBool(t types.Type) bool {
	basic, ok := t.Underlying().(*types.Basic)
	return ok && basic.Info()&types.IsBoolean != 0
}
