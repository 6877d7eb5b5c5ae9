// Package checker runs the closer ownership rules over one package.
package checker

import (
	"cmp"
	"context"
	"go/ast"
	"go/token"
	"go/types"
	"runtime"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/analysis"

	"github.com/mpyw/closerown/internal/directives/ignore"
	"github.com/mpyw/closerown/internal/disposable"
	"github.com/mpyw/closerown/internal/logging"
	"github.com/mpyw/closerown/internal/recursion"
	"github.com/mpyw/closerown/internal/registry"
	internalssa "github.com/mpyw/closerown/internal/ssa"
	"github.com/mpyw/closerown/internal/symbol"
)

// Diagnostic is a finding waiting for ignore filtering.
type Diagnostic struct {
	Pos     token.Pos
	Checker ignore.CheckerName
	Message string
}

// Checker evaluates every enabled rule on the function declarations of a
// package.
type Checker struct {
	engine     *disposable.Engine
	model      *symbol.Model
	ssaProg    *internalssa.Program
	tracer     *internalssa.Tracer
	ignoreMaps map[string]ignore.Map
	skipFiles  map[string]bool
	enabled    ignore.EnabledCheckers
	log        *zap.Logger
}

// New creates a Checker. ssaProg may be nil, which disables the cached rule.
func New(
	engine *disposable.Engine,
	reg *registry.Registry,
	ssaProg *internalssa.Program,
	ignoreMaps map[string]ignore.Map,
	skipFiles map[string]bool,
	enabled ignore.EnabledCheckers,
	log *zap.Logger,
) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{
		engine:  engine,
		model:   engine.Model(),
		ssaProg: ssaProg,
		tracer: internalssa.NewTracer(func(fn *types.Func) bool {
			return reg.Match(fn, registry.Cached) != nil
		}),
		ignoreMaps: ignoreMaps,
		skipFiles:  skipFiles,
		enabled:    enabled,
		log:        log,
	}
}

// funcResult is what one worker found in one declaration.
type funcResult struct {
	diags  []Diagnostic
	fields []fieldWrite
}

// Run checks the package and reports the diagnostics that survive the ignore
// directives, ordered by position.
func (c *Checker) Run(ctx context.Context, pass *analysis.Pass) error {
	decls := c.funcDecls(pass)
	results := make([]funcResult, len(decls))

	done := logging.Stopwatch(c.log, "rules", zap.String("package", pass.Pkg.Path()), zap.Int("funcs", len(decls)))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, decl := range decls {
		g.Go(func() error {
			defer logging.Recover(c.log, pass.Fset.Position(decl.Pos()).String())
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.checkFunc(gctx, decl)
			return nil
		})
	}
	err := g.Wait()
	done()
	if err != nil {
		return err
	}

	var diags []Diagnostic
	var writes []fieldWrite
	for _, r := range results {
		diags = append(diags, r.diags...)
		writes = append(writes, r.fields...)
	}
	if c.enabled[ignore.Member] {
		diags = append(diags, c.checkMembers(ctx, writes)...)
	}
	if c.enabled[ignore.Mixed] {
		diags = append(diags, c.checkMixed(writes)...)
	}

	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		return cmp.Or(cmp.Compare(a.Pos, b.Pos), cmp.Compare(a.Checker, b.Checker))
	})
	diags = slices.CompactFunc(diags, func(a, b Diagnostic) bool { return a == b })

	for _, d := range diags {
		if c.shouldIgnore(pass, d.Pos, d.Checker) {
			continue
		}
		pass.Reportf(d.Pos, "%s", d.Message)
	}
	return nil
}

// funcDecls returns the declarations with bodies outside skipped files.
func (c *Checker) funcDecls(pass *analysis.Pass) []*ast.FuncDecl {
	var decls []*ast.FuncDecl
	for _, file := range pass.Files {
		if c.skipFiles[pass.Fset.Position(file.Pos()).Filename] {
			continue
		}
		for _, d := range file.Decls {
			if fd, ok := d.(*ast.FuncDecl); ok && fd.Body != nil {
				decls = append(decls, fd)
			}
		}
	}
	return decls
}

// checkFunc applies the per-function rules to decl.
func (c *Checker) checkFunc(ctx context.Context, decl *ast.FuncDecl) funcResult {
	s := recursion.Borrow(ctx, nil)
	defer s.Release()

	done := logging.Stopwatch(c.log, "func", zap.String("name", decl.Name.Name))
	defer done()

	var r funcResult
	if c.enabled[ignore.Owned] {
		c.checkOwned(s, decl, &r)
	}
	if c.enabled[ignore.Cached] {
		c.checkCached(decl, &r)
	}

	collectWrites := c.enabled[ignore.Member] || c.enabled[ignore.Mixed]
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		if s.Canceled() {
			return false
		}
		switch node := n.(type) {
		case *ast.Ident:
			if c.enabled[ignore.Created] {
				c.checkCreated(s, node, &r)
			}
		case *ast.CallExpr, *ast.CompositeLit, *ast.UnaryExpr:
			if c.enabled[ignore.Discarded] {
				c.checkDiscarded(s, node.(ast.Expr), &r)
			}
			if lit, ok := node.(*ast.CompositeLit); ok && collectWrites {
				c.collectLiteralWrites(s, lit, &r)
			}
		case *ast.AssignStmt:
			if collectWrites {
				c.collectAssignWrites(s, node, &r)
			}
			if c.enabled[ignore.Reassign] {
				c.checkReassign(s, node, &r)
			}
		case *ast.SelectorExpr:
			if node.Sel.Name != "Close" {
				return true
			}
			if c.enabled[ignore.Injected] {
				c.checkInjected(node, &r)
			}
			if c.enabled[ignore.UseAfterClose] {
				c.checkUseAfterClose(node, &r)
			}
		}
		return true
	})
	return r
}

func (r *funcResult) report(pos token.Pos, checker ignore.CheckerName, msg string) {
	r.diags = append(r.diags, Diagnostic{Pos: pos, Checker: checker, Message: msg})
}

// shouldIgnore checks if the position should be ignored for the given checker.
func (c *Checker) shouldIgnore(pass *analysis.Pass, pos token.Pos, checkerName ignore.CheckerName) bool {
	position := pass.Fset.Position(pos)
	if c.skipFiles[position.Filename] {
		return true
	}
	ignoreMap, ok := c.ignoreMaps[position.Filename]
	if !ok {
		return false
	}
	return ignoreMap.ShouldIgnore(position.Line, checkerName)
}
