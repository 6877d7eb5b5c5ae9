// Package recursion provides the scoped memo sessions shared by the mutually
// recursive ownership predicates.
//
// A [Session] is borrowed at the top of a predicate call and released with
// defer when that call returns, even on panic:
//
//	s := recursion.Borrow(ctx, parent)
//	defer s.Release()
//
// Borrowing with a non-nil parent reuses the parent's table and only raises
// its reference count, so nested calls see each other's results. The table is
// cleared and pooled when the outermost borrower releases it; no result
// outlives the top-level call that produced it.
//
// [Session.Memo] keys results by predicate kind and syntax node, and
// [Session.MemoSlot] adds a result slot for multi-value arguments. A pair that
// is re-entered while still being evaluated yields the kind's assumed answer,
// which is what makes cyclic code terminate: true for the Ignores family and
// false for the rest. A result that leaned on an assumption about an entry
// still open further up is not stored, so it is asked again once that entry
// is settled.
package recursion
