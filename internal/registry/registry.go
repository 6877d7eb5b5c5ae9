package registry

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"

	"github.com/mpyw/closerown/internal/funcspec"
)

// Kind describes what a registered function does with the closer it receives
// or returns.
type Kind int

const (
	// TakesOwnership wraps the argument; closing the result closes the argument.
	TakesOwnership Kind = iota
	// KeepsOpen wraps the argument without ever closing it.
	KeepsOpen
	// RunsUntilClosed blocks serving the argument and closes it on return.
	RunsUntilClosed
	// Cached returns a closer that remains owned by the receiver.
	Cached
)

// String returns a short label used in debug logs.
func (k Kind) String() string {
	switch k {
	case TakesOwnership:
		return "takes-ownership"
	case KeepsOpen:
		return "keeps-open"
	case RunsUntilClosed:
		return "runs-until-closed"
	case Cached:
		return "cached"
	}
	return "unknown"
}

// Entry is one registered function.
type Entry struct {
	Spec   funcspec.Spec
	Kind   Kind
	ArgIdx int // closer argument index; ignored for Cached
}

// FullName returns a human-readable name for the entry, e.g. "tls.Client".
func (e Entry) FullName() string {
	return e.Spec.FullName()
}

// Registry holds registered functions.
type Registry struct {
	entries []Entry
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{}
}

// Register adds entries to the registry.
func (r *Registry) Register(entries ...Entry) {
	r.entries = append(r.entries, entries...)
}

// Entries returns all registered entries.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// Match returns the entry of the given kind registered for fn, or nil.
func (r *Registry) Match(fn *types.Func, kind Kind) *Entry {
	if r == nil || fn == nil {
		return nil
	}

	for i := range r.entries {
		entry := &r.entries[i]
		if entry.Kind == kind && entry.Spec.Matches(fn) {
			return entry
		}
	}

	return nil
}

// MatchArg reports the entry of the given kind whose closer argument is
// argument idx of a call to fn.
func (r *Registry) MatchArg(fn *types.Func, kind Kind, idx int) *Entry {
	entry := r.Match(fn, kind)
	if entry == nil || entry.ArgIdx != idx {
		return nil
	}

	return entry
}

// MatchCall attempts to match a call expression against entries of kind.
// It returns the matched entry and its closer argument, or nil.
func (r *Registry) MatchCall(pass *analysis.Pass, call *ast.CallExpr, kind Kind) (*Entry, ast.Expr) {
	fn := funcspec.ExtractFunc(pass, call)
	if fn == nil {
		return nil, nil
	}

	entry := r.Match(fn, kind)
	if entry == nil {
		return nil, nil
	}
	if kind == Cached {
		return entry, nil
	}
	if entry.ArgIdx < 0 || entry.ArgIdx >= len(call.Args) {
		return nil, nil
	}

	return entry, call.Args[entry.ArgIdx]
}
