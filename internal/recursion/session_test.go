package recursion_test

import (
	"context"
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpyw/closerown/internal/recursion"
)

func TestMemoEvaluatesOnce(t *testing.T) {
	t.Parallel()

	s := recursion.Borrow(context.Background(), nil)
	defer s.Release()

	node := ast.NewIdent("f")
	calls := 0
	fn := func() bool {
		calls++
		return true
	}

	assert.True(t, s.Memo(recursion.Disposes, node, fn))
	assert.True(t, s.Memo(recursion.Disposes, node, fn))
	assert.Equal(t, 1, calls)

	// A different predicate on the same node has its own entry.
	assert.True(t, s.Memo(recursion.Stores, node, fn))
	assert.Equal(t, 2, calls)
}

func TestMemoBreaksCycles(t *testing.T) {
	t.Parallel()

	s := recursion.Borrow(context.Background(), nil)
	defer s.Release()

	a, b := ast.NewIdent("a"), ast.NewIdent("b")

	var visitA, visitB func() bool
	visitA = func() bool { return s.Memo(recursion.Returns, b, visitB) }
	visitB = func() bool { return s.Memo(recursion.Returns, a, visitA) }

	assert.False(t, s.Memo(recursion.Returns, a, visitA))
}

func TestMemoAssumesIgnoredOnCycles(t *testing.T) {
	t.Parallel()

	s := recursion.Borrow(context.Background(), nil)
	defer s.Release()

	f, g := ast.NewIdent("f"), ast.NewIdent("g")

	// f = g; g = f with no other reads: nothing escapes the cycle.
	var visitF, visitG func() bool
	visitF = func() bool { return s.Memo(recursion.IgnoresLocal, g, visitG) }
	visitG = func() bool { return s.Memo(recursion.IgnoresLocal, f, visitF) }

	assert.True(t, s.Memo(recursion.IgnoresLocal, f, visitF))
	assert.True(t, s.Memo(recursion.IgnoresLocal, g, visitG))
}

func TestMemoDropsProvisionalResults(t *testing.T) {
	t.Parallel()

	s := recursion.Borrow(context.Background(), nil)
	defer s.Release()

	f, g := ast.NewIdent("f"), ast.NewIdent("g")
	unreachable := func() bool {
		t.Fatal("an open entry must not be evaluated again")
		return false
	}

	// g leans on the open answer for f, and f then turns out to escape.
	escapes := s.Memo(recursion.IgnoresLocal, f, func() bool {
		viaG := s.Memo(recursion.IgnoresLocal, g, func() bool {
			return s.Memo(recursion.IgnoresLocal, f, unreachable)
		})
		assert.True(t, viaG, "g sees the assumed answer while f is open")
		return false
	})
	assert.False(t, escapes)

	calls := 0
	assert.False(t, s.Memo(recursion.IgnoresLocal, g, func() bool {
		calls++
		return s.Memo(recursion.IgnoresLocal, f, unreachable)
	}))
	assert.Equal(t, 1, calls, "the provisional answer for g is not reused")
}

func TestMemoSlotKeepsSlotsApart(t *testing.T) {
	t.Parallel()

	s := recursion.Borrow(context.Background(), nil)
	defer s.Release()

	arg := ast.NewIdent("pair")
	assert.False(t, s.MemoSlot(recursion.IgnoresTarget, arg, 0, func() bool { return false }))
	assert.True(t, s.MemoSlot(recursion.IgnoresTarget, arg, 1, func() bool { return true }))
	assert.False(t, s.MemoSlot(recursion.IgnoresTarget, arg, 0, func() bool { return true }))
}

func TestNestedBorrowSharesTable(t *testing.T) {
	t.Parallel()

	outer := recursion.Borrow(context.Background(), nil)
	defer outer.Release()

	node := ast.NewIdent("f")
	outer.Memo(recursion.Creation, node, func() bool { return true })

	inner := recursion.Borrow(context.Background(), outer)
	assert.Same(t, outer, inner)
	inner.Release()

	called := false
	assert.True(t, outer.Memo(recursion.Creation, node, func() bool {
		called = true
		return false
	}))
	assert.False(t, called, "the inner release must not clear the outer table")
}

func TestMemoValue(t *testing.T) {
	t.Parallel()

	s := recursion.Borrow(context.Background(), nil)
	defer s.Release()

	node := ast.NewIdent("f")
	v, ok := recursion.MemoValue(s, recursion.Assigns, node, func() (string, bool) { return "conn", true })
	assert.True(t, ok)
	assert.Equal(t, "conn", v)

	v, ok = recursion.MemoValue(s, recursion.Assigns, node, func() (string, bool) { return "other", true })
	assert.True(t, ok)
	assert.Equal(t, "conn", v)
}

func TestCanceledSessionAnswersFalse(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := recursion.Borrow(ctx, nil)
	defer s.Release()

	cancel()

	assert.True(t, s.Canceled())
	assert.False(t, s.Memo(recursion.Ignores, ast.NewIdent("f"), func() bool { return true }))
}
