package disposable

import (
	"go/ast"
	"go/types"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/mpyw/closerown/internal/ownership"
	"github.com/mpyw/closerown/internal/recursion"
	"github.com/mpyw/closerown/internal/registry"
	"github.com/mpyw/closerown/internal/symbol"
	"github.com/mpyw/closerown/internal/typeutil"
	"github.com/mpyw/closerown/internal/values"
)

// Verdict is the fate of a closer-producing expression.
type Verdict int

// Verdicts in the order they are decided.
const (
	Ignored Verdict = iota
	Disposed
	Assigned
	Stored
	Returned
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Disposed:
		return "disposed"
	case Assigned:
		return "assigned"
	case Stored:
		return "stored"
	case Returned:
		return "returned"
	}
	return "ignored"
}

// Engine answers ownership questions about expressions of one package.
// It holds only read-only state and can be shared by concurrent workers;
// every query takes the caller's recursion.Session.
type Engine struct {
	model      *symbol.Model
	values     *values.Resolver
	classifier *ownership.Classifier
	registry   *registry.Registry
	log        *zap.Logger
}

// New creates an Engine.
func New(model *symbol.Model, classifier *ownership.Classifier, reg *registry.Registry, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		model:      model,
		values:     values.New(model),
		classifier: classifier,
		registry:   reg,
		log:        log,
	}
}

// Model returns the symbol model the engine reads.
func (e *Engine) Model() *symbol.Model { return e.model }

// Values returns the value resolver the engine uses.
func (e *Engine) Values() *values.Resolver { return e.values }

// Classifier returns the ownership classifier the engine uses.
func (e *Engine) Classifier() *ownership.Classifier { return e.classifier }

// Fate returns the first affirmative verdict in the order Disposed, Assigned,
// Stored, Returned, falling back to Ignored.
func (e *Engine) Fate(s *recursion.Session, expr ast.Expr) Verdict {
	switch {
	case e.Disposes(s, expr):
		return Disposed
	case e.Assigns(s, expr):
		return Assigned
	case e.Stores(s, expr):
		return Stored
	case e.Returns(s, expr):
		return Returned
	}
	return Ignored
}

// IsCreation reports whether expr may produce a closer the current scope is
// responsible for: a literal or new of a closer type, or a call returning a
// closer that is not a cached accessor, possibly reached through local
// variables and functions of this package.
func (e *Engine) IsCreation(s *recursion.Session, expr ast.Expr) bool {
	return e.IsCreationAt(s, values.Of(expr))
}

// IsCreationAt is IsCreation for one slot of a multi-value expression.
func (e *Engine) IsCreationAt(s *recursion.Session, v values.Value) bool {
	compute := func() bool {
		for leaf := range e.values.Recursive(s, v) {
			if e.isCreationLeaf(leaf) {
				return true
			}
		}
		return false
	}
	// The memo is keyed by node, so only whole-value queries are cached.
	if v.Index >= 0 {
		return compute()
	}
	return s.Memo(recursion.Creation, v.Expr, compute)
}

// isCreationLeaf decides creation for an expression the resolver could not
// trace further.
func (e *Engine) isCreationLeaf(v values.Value) bool {
	switch x := astutil.Unparen(v.Expr).(type) {
	case *ast.CompositeLit:
		return typeutil.IsCloser(e.model.TypeOf(x))
	case *ast.UnaryExpr:
		if _, ok := astutil.Unparen(x.X).(*ast.CompositeLit); ok {
			return typeutil.IsCloser(e.model.TypeOf(x))
		}
	case *ast.CallExpr:
		return e.isCreationCall(x, v.Index)
	}
	return false
}

func (e *Engine) isCreationCall(call *ast.CallExpr, index int) bool {
	t := e.model.TypeOf(call)
	if t == nil {
		return false
	}

	if id, ok := astutil.Unparen(call.Fun).(*ast.Ident); ok && id.Name == "new" {
		if _, builtin := e.model.Pass.TypesInfo.Uses[id].(*types.Builtin); builtin {
			return typeutil.IsCloser(t)
		}
	}

	if !e.slotIsCloser(t, index) {
		return false
	}

	if fn := e.calleeFunc(call); fn != nil && e.registry.Match(fn, registry.Cached) != nil {
		return false
	}
	return true
}

func (e *Engine) slotIsCloser(t types.Type, index int) bool {
	slots := typeutil.CloserSlots(t)
	if index < 0 {
		return len(slots) > 0
	}
	for _, slot := range slots {
		if slot == index {
			return true
		}
	}
	return false
}

// IsOwned reports whether the scope declaring obj must close it: a local
// whose values include a creation, or a parameter that acquires ownership.
func (e *Engine) IsOwned(s *recursion.Session, obj types.Object) bool {
	v, ok := obj.(*types.Var)
	if !ok {
		return false
	}
	switch e.classifier.Classify(v) {
	case ownership.Owned:
		if e.model.IsParam(v) {
			return true
		}
		for _, a := range e.model.Assignments(v) {
			if a.Value == nil || a.Range {
				continue
			}
			if e.IsCreationAt(s, values.Value{Expr: a.Value, Index: a.Index}) {
				return true
			}
		}
	}
	return false
}

// ShouldDispose reports whether obj is owned and every usage of it is ignored.
func (e *Engine) ShouldDispose(s *recursion.Session, obj types.Object) bool {
	if !e.IsOwned(s, obj) {
		return false
	}
	return e.ignoresLocal(s, obj)
}
