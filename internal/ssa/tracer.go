package ssa

import (
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/mpyw/closerown/internal/typeutil"
)

// Origin classifies where a returned closer comes from.
type Origin int

const (
	// OriginUnknown covers parameters, free variables and values the tracer
	// cannot follow.
	OriginUnknown Origin = iota
	// OriginCreated is a fresh value: an allocation or a call handing over a
	// new closer.
	OriginCreated
	// OriginCached is a value kept by someone else: a package variable, a
	// field, or an element of a container held in one.
	OriginCached
)

// Origins holds the positions of created and cached sources feeding a
// function's closer results.
type Origins struct {
	Created []token.Pos
	Cached  []token.Pos
}

// Mixed reports whether the function returns both kinds.
func (o Origins) Mixed() bool {
	return len(o.Created) > 0 && len(o.Cached) > 0
}

// Tracer follows SSA values back to their origins.
type Tracer struct {
	isCachedCall func(*types.Func) bool
}

// NewTracer creates a tracer. isCachedCall reports accessors whose result is
// owned by their receiver; it may be nil.
func NewTracer(isCachedCall func(*types.Func) bool) *Tracer {
	if isCachedCall == nil {
		isCachedCall = func(*types.Func) bool { return false }
	}
	return &Tracer{isCachedCall: isCachedCall}
}

// =============================================================================
// Return Origins
// =============================================================================

// ReturnOrigins traces every closer result of fn.
func (t *Tracer) ReturnOrigins(fn *ssa.Function) Origins {
	var out Origins
	if fn == nil {
		return out
	}

	slots := typeutil.CloserSlots(resultType(fn.Signature))
	if len(slots) == 0 {
		return out
	}

	visited := make(map[ssa.Value]bool)
	for _, ret := range returns(fn) {
		for _, slot := range slots {
			if slot >= len(ret.Results) {
				continue
			}
			t.collect(ret.Results[slot], visited, &out)
		}
	}
	return out
}

func (t *Tracer) collect(v ssa.Value, visited map[ssa.Value]bool, out *Origins) {
	if visited[v] {
		return
	}
	visited[v] = true

	switch val := v.(type) {
	case *ssa.Const:
		// nil results carry no closer
	case *ssa.Phi:
		for _, edge := range val.Edges {
			t.collect(edge, visited, out)
		}
	case *ssa.MakeInterface:
		t.collect(val.X, visited, out)
	case *ssa.ChangeInterface:
		t.collect(val.X, visited, out)
	case *ssa.ChangeType:
		t.collect(val.X, visited, out)
	case *ssa.TypeAssert:
		t.collect(val.X, visited, out)
	case *ssa.Extract:
		if call, ok := val.Tuple.(*ssa.Call); ok {
			t.collectCall(call, val.Index, visited, out)
		}
	case *ssa.Call:
		t.collectCall(val, 0, visited, out)
	case *ssa.Alloc:
		out.Created = append(out.Created, val.Pos())
	case *ssa.UnOp:
		if val.Op != token.MUL {
			return
		}
		t.collectLoad(val, visited, out)
	case *ssa.Lookup:
		if t.heldElsewhere(val.X) {
			out.Cached = append(out.Cached, val.Pos())
		}
	}
}

// collectCall follows calls into functions of the same package and treats
// every other call as handing over a new closer unless it is a registered
// cached accessor.
func (t *Tracer) collectCall(call *ssa.Call, index int, visited map[ssa.Value]bool, out *Origins) {
	if fn := calleeFunc(call.Common()); fn != nil && t.isCachedCall(fn) {
		out.Cached = append(out.Cached, call.Pos())
		return
	}

	callee := call.Call.StaticCallee()
	if callee == nil || len(callee.Blocks) == 0 {
		out.Created = append(out.Created, call.Pos())
		return
	}

	for _, ret := range returns(callee) {
		if index < len(ret.Results) {
			t.collect(ret.Results[index], visited, out)
		}
	}
}

// collectLoad classifies a load: from a package variable or a field of a
// borrowed struct it is cached, from a local slot it is whatever was stored.
func (t *Tracer) collectLoad(load *ssa.UnOp, visited map[ssa.Value]bool, out *Origins) {
	switch addr := load.X.(type) {
	case *ssa.Global:
		out.Cached = append(out.Cached, load.Pos())
	case *ssa.FieldAddr:
		if t.heldElsewhere(addr.X) {
			out.Cached = append(out.Cached, load.Pos())
			return
		}
		if stored := t.findStoredValue(addr); stored != nil {
			t.collect(stored, visited, out)
		}
	case *ssa.IndexAddr:
		if t.heldElsewhere(addr.X) {
			out.Cached = append(out.Cached, load.Pos())
			return
		}
		if stored := t.findStoredValue(addr); stored != nil {
			t.collect(stored, visited, out)
		}
	case *ssa.Alloc:
		if stored := t.findStoredValue(addr); stored != nil {
			t.collect(stored, visited, out)
		}
	}
}

// heldElsewhere reports whether base reaches memory that outlives the call:
// a receiver or parameter, a package variable, or a load from either.
func (t *Tracer) heldElsewhere(base ssa.Value) bool {
	seen := make(map[ssa.Value]bool)
	for base != nil && !seen[base] {
		seen[base] = true
		switch v := base.(type) {
		case *ssa.Parameter, *ssa.Global, *ssa.FreeVar:
			return true
		case *ssa.UnOp:
			base = v.X
		case *ssa.FieldAddr:
			base = v.X
		case *ssa.IndexAddr:
			base = v.X
		case *ssa.Field:
			base = v.X
		default:
			return false
		}
	}
	return false
}

// =============================================================================
// Store Tracking
// =============================================================================

// findStoredValue finds the value that was stored at the given address.
func (t *Tracer) findStoredValue(addr ssa.Value) ssa.Value {
	instr, ok := addr.(ssa.Instruction)
	if !ok {
		return nil
	}
	fn := instr.Parent()
	if fn == nil {
		return nil
	}

	// Look for Store instructions that write to a matching address
	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			store, ok := instr.(*ssa.Store)
			if !ok {
				continue
			}
			if t.addressesMatch(store.Addr, addr) {
				return store.Val
			}
		}
	}
	return nil
}

// addressesMatch checks if two addresses refer to the same memory location.
func (t *Tracer) addressesMatch(a, b ssa.Value) bool {
	if a == b {
		return true
	}

	// Check for equivalent FieldAddr
	fa1, ok1 := a.(*ssa.FieldAddr)
	fa2, ok2 := b.(*ssa.FieldAddr)
	if ok1 && ok2 {
		return fa1.X == fa2.X && fa1.Field == fa2.Field
	}

	// Check for equivalent IndexAddr
	ia1, ok1 := a.(*ssa.IndexAddr)
	ia2, ok2 := b.(*ssa.IndexAddr)
	if ok1 && ok2 && ia1.X == ia2.X {
		c1, cok1 := ia1.Index.(*ssa.Const)
		c2, cok2 := ia2.Index.(*ssa.Const)
		if cok1 && cok2 {
			return c1.Value == c2.Value
		}
	}

	return false
}

func returns(fn *ssa.Function) []*ssa.Return {
	var out []*ssa.Return
	for _, block := range fn.Blocks {
		if len(block.Instrs) == 0 {
			continue
		}
		if ret, ok := block.Instrs[len(block.Instrs)-1].(*ssa.Return); ok {
			out = append(out, ret)
		}
	}
	return out
}

func resultType(sig *types.Signature) types.Type {
	results := sig.Results()
	if results.Len() == 1 {
		return results.At(0).Type()
	}
	return results
}
