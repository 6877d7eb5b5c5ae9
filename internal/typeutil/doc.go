// Package typeutil provides type checking utilities for closerown.
//
// # Overview
//
// This package answers type-level questions about closers: whether a type
// implements io.Closer, which result slots of a call carry closers, and where
// a named type declares its Close method.
//
// # Closer Detection
//
// Use [IsCloser] to check whether a type implements io.Closer:
//
//	if typeutil.IsCloser(typ) {
//	    // values of typ must be closed by their owner
//	}
//
// The check is structural. A named struct type whose Close method has a
// pointer receiver also counts, because values of such types are almost always
// handled through their address.
//
// Results are cached per type in a sync.Map, so repeated checks during one
// analysis run are cheap and safe to perform from several goroutines.
//
// # Result Slots
//
// Calls may return tuples. [CloserSlots] reports the closer-typed indices:
//
//	CloserSlots(type of os.Open(p))  // [0]
//	CloserSlots(type of os.Pipe())   // [0 1]
//
// # Close Methods
//
// [CloseMethod] finds the Close method of a named type (or its pointer), used
// to check whether an owning type closes a field.
package typeutil
