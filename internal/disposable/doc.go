// Package disposable decides what happens to a closer-producing expression.
//
// The [Engine] answers four mutually recursive questions about an expression:
// whether its value is closed ([Engine.Disposes]), ends up in a field or
// package variable ([Engine.Assigns]), is kept in a container
// ([Engine.Stores]) or leaves the function ([Engine.Returns]). When none
// holds, the value is [Ignored] and the current scope still owns it.
//
// Wrappers are followed in both directions. A closer handed to a constructor
// whose result closes it counts as disposed when the wrapper is
// ([Engine.DisposedByReturnValue]); a constructor told to leave its argument
// open does not adopt it.
//
// Every query takes a [recursion.Session] so results are memoised per
// top-level call and cycles through locals or recursive functions terminate.
package disposable
