package ssa

import (
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// calleeFunc returns the declared function a call invokes: the interface
// method for dynamic dispatch, or the generic origin of an instantiated
// static callee. Calls through function values yield nil.
func calleeFunc(call *ssa.CallCommon) *types.Func {
	if call.IsInvoke() {
		return call.Method
	}

	fn := call.StaticCallee()
	if fn == nil {
		return nil
	}
	if origin := fn.Origin(); origin != nil {
		fn = origin
	}
	obj, _ := fn.Object().(*types.Func)
	return obj
}
