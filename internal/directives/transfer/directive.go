// Package transfer handles //closerown:owns directives and the
// -ownership-transfer flag.
package transfer

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"

	"github.com/mpyw/closerown/internal/funcspec"
)

const prefix = "closerown:owns"

// Map tracks parameters that take ownership of the closer passed to them.
type Map struct {
	local    map[*types.Func]map[int]struct{} // from directives
	external []funcspec.Param                 // from -ownership-transfer flag
}

// Invalid is a directive naming a parameter the function does not have.
type Invalid struct {
	Pos  token.Pos
	Name string
}

// TakesOwnership reports whether parameter idx of fn is marked as taking
// ownership.
func (m *Map) TakesOwnership(fn *types.Func, idx int) bool {
	if m == nil || fn == nil {
		return false
	}
	fn = fn.Origin()

	// Check local map first (directive-based)
	if params, ok := m.local[fn]; ok {
		if _, ok := params[idx]; ok {
			return true
		}
	}

	// Check external specs (flag-based)
	for _, p := range m.external {
		if p.Index == idx && p.Matches(fn) {
			return true
		}
	}

	return false
}

// Len returns the total number of marked parameters (local + external).
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	n := len(m.external)
	for _, params := range m.local {
		n += len(params)
	}

	return n
}

// Build scans function doc comments for the directive. external holds the
// parsed -ownership-transfer flag. Directives naming unknown parameters are
// returned so the caller can report them.
func Build(pass *analysis.Pass, external []funcspec.Param) (*Map, []Invalid) {
	m := &Map{
		local:    make(map[*types.Func]map[int]struct{}),
		external: external,
	}

	var invalid []Invalid
	for _, file := range pass.Files {
		invalid = append(invalid, buildForFile(pass, file, m.local)...)
	}

	return m, invalid
}

// buildForFile scans a single file for ownership directives.
func buildForFile(pass *analysis.Pass, file *ast.File, m map[*types.Func]map[int]struct{}) []Invalid {
	var invalid []Invalid

	for _, decl := range file.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok || funcDecl.Doc == nil {
			continue
		}

		fn, ok := pass.TypesInfo.Defs[funcDecl.Name].(*types.Func)
		if !ok {
			continue
		}

		for _, c := range funcDecl.Doc.List {
			names, ok := parseComment(c.Text)
			if !ok {
				continue
			}
			for _, name := range names {
				idx := paramIndex(fn, name)
				if idx < 0 {
					invalid = append(invalid, Invalid{Pos: c.Pos(), Name: name})
					continue
				}
				if m[fn] == nil {
					m[fn] = make(map[int]struct{})
				}
				m[fn][idx] = struct{}{}
			}
		}
	}

	return invalid
}

// parseComment extracts the parameter names of an ownership directive.
//
// Supported formats:
//   - //closerown:owns conn
//   - //closerown:owns r,w
//   - //closerown:owns conn - closed by Shutdown
func parseComment(text string) ([]string, bool) {
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimSpace(text)

	rest, ok := strings.CutPrefix(text, prefix)
	if !ok {
		return nil, false
	}
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return nil, false
	}

	if idx := strings.Index(rest, " - "); idx >= 0 {
		rest = rest[:idx]
	}
	if idx := strings.Index(rest, " //"); idx >= 0 {
		rest = rest[:idx]
	}

	var names []string
	for part := range strings.SplitSeq(rest, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}

	return names, true
}

func paramIndex(fn *types.Func, name string) int {
	params := fn.Signature().Params()
	for i := range params.Len() {
		if params.At(i).Name() == name {
			return i
		}
	}

	return -1
}
