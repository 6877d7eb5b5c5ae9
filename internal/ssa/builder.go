package ssa

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"
)

// BuildSSAAnalyzer is the buildssa analyzer that must be in Requires.
var BuildSSAAnalyzer = buildssa.Analyzer

// Program is the SSA form of the analysed package, indexed by declaration.
// It is read-only after Build and safe for concurrent use.
type Program struct {
	Pkg   *ssa.Package
	decls map[token.Pos]*ssa.Function
}

// Build indexes the SSA functions produced by buildssa. It returns nil when
// the pass carries no SSA result.
func Build(pass *analysis.Pass) *Program {
	res, ok := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)
	if !ok || res == nil {
		return nil
	}

	p := &Program{Pkg: res.Pkg, decls: make(map[token.Pos]*ssa.Function, len(res.SrcFuncs))}
	for _, fn := range res.SrcFuncs {
		if decl, ok := fn.Syntax().(*ast.FuncDecl); ok {
			p.decls[decl.Pos()] = fn
		}
	}
	return p
}

// Function returns the SSA function built from decl, or nil. Closures are
// reached through the AnonFuncs of their enclosing function.
func (p *Program) Function(decl *ast.FuncDecl) *ssa.Function {
	if p == nil || decl == nil {
		return nil
	}
	return p.decls[decl.Pos()]
}
