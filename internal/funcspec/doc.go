// Package funcspec names functions and parameters in flag values and the
// built-in API registry.
//
// # Format
//
//	crypto/tls.Client                 // package-level function
//	net/http.Server.Serve             // method; pointer and value receivers alike
//	github.com/example/db.Pool.Adopt:0 // parameter 0 of a method
//
// The segment before the last dot is read as a type name when it starts with
// an upper-case letter, so unexported receiver types cannot be named.
//
// [Parse] splits a function name into a [Spec]; [ParseParam] and
// [ParseParamList] add the 0-based ordinal used by -ownership-transfer and
// wrap [ErrInvalidParam] on a missing or negative ordinal.
//
// # Matching
//
// [Spec.Matches] compares the package path exactly and resolves instantiated
// generics to their origin:
//
//	if fn := funcspec.ExtractFunc(pass, call); fn != nil && spec.Matches(fn) {
//	    // call invokes the named function
//	}
//
// [Spec.FullName] gives the short form used in diagnostics, such as
// "http.Server.Serve".
package funcspec
