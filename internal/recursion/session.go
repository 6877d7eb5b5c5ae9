package recursion

import (
	"context"
	"go/ast"
	"math"
	"sync"
)

// Kind identifies the predicate a memo entry belongs to.
type Kind uint8

// Predicate kinds sharing one memo table.
const (
	Disposes Kind = iota
	Assigns
	Stores
	Returns
	Ignores
	IgnoresLocal
	DisposedByReturnValue
	AccessibleInReturnValue
	IgnoresTarget
	Creation
	ClosesField
)

// assumed is the answer for a pair re-entered while still being evaluated.
// The Ignores family holds only when no path escapes, so a cycle back to the
// question does not count against it; every other predicate needs a real
// witness.
func (k Kind) assumed() bool {
	switch k {
	case Ignores, IgnoresLocal, IgnoresTarget:
		return true
	}
	return false
}

type key struct {
	kind Kind
	node ast.Node
	slot int
}

type entry struct {
	done  bool
	depth int
	ok    bool
	value any
}

// Session is a scoped memo table for one top-level predicate call.
// Nested predicate calls borrow the same Session; the memory is returned to
// the pool when the outermost borrower releases it.
type Session struct {
	ctx   context.Context
	refs  int
	memo  map[key]*entry
	depth int
	// low is the shallowest in-progress entry the current evaluation leaned on.
	low int
}

var pool = sync.Pool{
	New: func() any {
		return &Session{memo: make(map[key]*entry)}
	},
}

// Borrow returns parent with its reference count raised, or a fresh Session
// bound to ctx when parent is nil. Every Borrow must be paired with Release.
func Borrow(ctx context.Context, parent *Session) *Session {
	if parent != nil {
		parent.refs++
		return parent
	}
	s := pool.Get().(*Session)
	s.ctx = ctx
	s.refs = 1
	s.depth = 0
	s.low = math.MaxInt
	return s
}

// Release drops one reference. The last release clears the Session and puts it
// back into the pool; the Session must not be used afterwards.
func (s *Session) Release() {
	s.refs--
	if s.refs > 0 {
		return
	}
	clear(s.memo)
	s.ctx = nil
	pool.Put(s)
}

// Context returns the cancellation context of the session.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Canceled reports whether the analysis was cancelled.
func (s *Session) Canceled() bool {
	return s.ctx != nil && s.ctx.Err() != nil
}

// Memo evaluates fn once per (kind, node). A re-entrant call for a pair that is
// still being evaluated returns the kind's assumed answer, which bounds mutual
// recursion.
func (s *Session) Memo(kind Kind, node ast.Node, fn func() bool) bool {
	return s.MemoSlot(kind, node, 0, fn)
}

// MemoSlot is Memo for questions asked about one slot of a node, such as one
// result of a multi-value argument.
func (s *Session) MemoSlot(kind Kind, node ast.Node, slot int, fn func() bool) bool {
	_, ok := memo(s, key{kind: kind, node: node, slot: slot}, func() (struct{}, bool) {
		return struct{}{}, fn()
	})
	return ok
}

// MemoValue is Memo for predicates that also produce a value, such as the
// field an expression is assigned to.
func MemoValue[T any](s *Session, kind Kind, node ast.Node, fn func() (T, bool)) (T, bool) {
	return memo(s, key{kind: kind, node: node}, fn)
}

// memo stores a result only when it did not lean on an entry that is still
// open further up the stack. Such provisional results are dropped and asked
// again once the outer question is settled.
func memo[T any](s *Session, k key, fn func() (T, bool)) (T, bool) {
	var zero T
	if s.Canceled() {
		return zero, false
	}
	if e, ok := s.memo[k]; ok {
		if !e.done {
			s.low = min(s.low, e.depth)
			return zero, k.kind.assumed()
		}
		if !e.ok {
			return zero, false
		}
		v, _ := e.value.(T)
		return v, true
	}

	e := &entry{depth: s.depth}
	s.memo[k] = e
	outer := s.low
	s.low = math.MaxInt
	s.depth++

	v, ok := fn()

	s.depth--
	if s.low < e.depth {
		delete(s.memo, k)
		s.low = min(outer, s.low)
	} else {
		e.value, e.ok, e.done = v, ok, true
		s.low = outer
	}
	return v, ok
}
