// Package registry records what well-known functions do with closers.
//
// # Overview
//
// Much of the ownership picture depends on library behaviour the analysed
// package cannot see: tls.Client adopts its connection, gzip.NewWriter leaves
// its destination open, http.Serve closes its listener when it returns, and
// exec.Cmd.StdoutPipe hands out a pipe that Wait closes. The registry makes
// these facts explicit.
//
// # Registry Structure
//
//	type Entry struct {
//	    Spec   funcspec.Spec  // Function specification
//	    Kind   Kind           // What happens to the closer
//	    ArgIdx int            // Index of the closer argument
//	}
//
// # Kinds
//
//   - [TakesOwnership]: closing the result closes the argument
//   - [KeepsOpen]: the argument stays open after the result is closed
//   - [RunsUntilClosed]: a blocking loop that closes the argument on return
//   - [Cached]: the result is owned by the receiver, not the caller
//
// # Matching Functions
//
//	reg := registry.Default()
//	if entry, arg := reg.MatchCall(pass, call, registry.RunsUntilClosed); entry != nil {
//	    // arg is closed by the call
//	}
//
// # Built-in Registrations
//
// [Default] combines [RegisterWrapperAPIs], [RegisterEncoderAPIs],
// [RegisterServeAPIs] and [RegisterCachedAPIs]. Project-specific transfers are
// added through the ownership configuration file and the -ownership-transfer
// flag rather than the registry.
package registry
