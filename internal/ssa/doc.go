// Package ssa traces where the closers a function returns come from.
//
// # Overview
//
// The AST engine answers questions about single expressions. Deciding whether
// a function hands out a mix of fresh and shared closers needs data flow
// across branches, which SSA gives for free through Phi nodes:
//
//	func (p *Pool) Get() (net.Conn, error) {
//	    if c := p.idle; c != nil {
//	        return c, nil         // cached: loaded from a field of p
//	    }
//	    return net.Dial("tcp", p.addr) // created
//	}
//
// # Program Building
//
// Use [Build] to index the result of the buildssa analyzer by declaration:
//
//	prog := ssa.Build(pass)
//	fn := prog.Function(decl)
//
// # Tracer
//
// [Tracer.ReturnOrigins] walks every return of a function and follows each
// closer result back through Phi nodes, interface conversions, tuple
// extraction, loads and calls into functions of the same package:
//
//   - allocations and calls leaving the package are created
//   - loads from package variables, or from fields and elements reached from
//     a parameter, receiver or captured variable, are cached
//   - registered accessors such as exec.Cmd.StdoutPipe are cached
//   - parameters and everything else are unknown
//
//	tracer := ssa.NewTracer(isCachedAccessor)
//	if tracer.ReturnOrigins(fn).Mixed() {
//	    // report
//	}
package ssa
