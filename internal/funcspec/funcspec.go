// Package funcspec provides shared function specification parsing and matching.
package funcspec

import (
	"errors"
	"fmt"
	"go/ast"
	"go/types"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/types/typeutil"
)

// Spec holds parsed components of a function specification.
// Format: "pkg/path.Func" or "pkg/path.Type.Method".
type Spec struct {
	PkgPath  string
	TypeName string // empty for package-level functions
	FuncName string
}

// Parse parses a single function specification string into components.
// Format: "pkg/path.Func" or "pkg/path.Type.Method".
func Parse(s string) Spec {
	spec := Spec{}

	lastDot := strings.LastIndex(s, ".")
	if lastDot == -1 {
		spec.FuncName = s

		return spec
	}

	spec.FuncName = s[lastDot+1:]
	prefix := s[:lastDot]

	// Check if there's another dot (indicating Type.Method)
	// Type names start with uppercase in Go.
	secondLastDot := strings.LastIndex(prefix, ".")
	if secondLastDot != -1 {
		possibleType := prefix[secondLastDot+1:]
		if len(possibleType) > 0 && unicode.IsUpper(rune(possibleType[0])) {
			spec.TypeName = possibleType
			spec.PkgPath = prefix[:secondLastDot]

			return spec
		}
	}

	spec.PkgPath = prefix

	return spec
}

// ErrInvalidParam is returned when a parameter specification has no valid
// ordinal after the colon.
var ErrInvalidParam = errors.New("invalid parameter specification")

// Param is a function specification narrowed to one parameter.
// Format: "pkg/path.Func:N" or "pkg/path.Type.Method:N" with a 0-based N.
type Param struct {
	Spec
	Index int
}

// ParseParam parses a parameter specification.
func ParseParam(s string) (Param, error) {
	fn, idx, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || fn == "" {
		return Param{}, fmt.Errorf("%w: %q: want pkg.Func:N", ErrInvalidParam, s)
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return Param{}, fmt.Errorf("%w: %q: parameter must be a non-negative integer", ErrInvalidParam, s)
	}
	return Param{Spec: Parse(fn), Index: n}, nil
}

// ParseParamList parses a comma-separated list of parameter specifications.
// Empty items are skipped.
func ParseParamList(s string) ([]Param, error) {
	var params []Param
	for part := range strings.SplitSeq(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := ParseParam(part)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

// Matches reports whether fn, or the generic function it instantiates, is
// the function or method this Spec names. Pointer and value receivers match
// alike.
func (s Spec) Matches(fn *types.Func) bool {
	if fn == nil || fn.Name() != s.FuncName {
		return false
	}
	fn = fn.Origin()
	if fn.Pkg() == nil || fn.Pkg().Path() != s.PkgPath {
		return false
	}

	recv := fn.Signature().Recv()
	if recv == nil || s.TypeName == "" {
		return recv == nil && s.TypeName == ""
	}
	return receiverName(recv.Type()) == s.TypeName
}

func receiverName(t types.Type) string {
	if ptr, ok := types.Unalias(t).(*types.Pointer); ok {
		t = ptr.Elem()
	}
	if named, ok := types.Unalias(t).(*types.Named); ok {
		return named.Obj().Name()
	}
	return ""
}

// FullName returns a short display name such as "tls.Client" or
// "http.Server.Serve".
func (s Spec) FullName() string {
	pkg := s.PkgPath
	if i := strings.LastIndex(pkg, "/"); i >= 0 {
		pkg = pkg[i+1:]
	}
	if s.TypeName != "" {
		return pkg + "." + s.TypeName + "." + s.FuncName
	}
	return pkg + "." + s.FuncName
}

// ExtractFunc returns the function or method call invokes, looking through
// explicit instantiation. Calls through function values and builtins yield
// nil.
func ExtractFunc(pass *analysis.Pass, call *ast.CallExpr) *types.Func {
	fn, _ := typeutil.Callee(pass.TypesInfo, call).(*types.Func)
	return fn
}
