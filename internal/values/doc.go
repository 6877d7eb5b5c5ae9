// Package values traces where an expression's value comes from.
//
// [Resolver.Values] goes one step back: a variable resolves to the
// expressions assigned to it, a call into a function of the analysed package
// resolves to that function's return operands, a conversion or type assertion
// resolves to its operand, and a generic pass-through such as
// Must[T](v T, err error) T resolves to the argument bound to T.
//
// [Resolver.Recursive] repeats the step and yields only the origins, which the
// ownership engine then classifies as creations, injections or cached values.
package values
