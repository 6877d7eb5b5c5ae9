// Package symbol provides a read-only facade over go/types and the AST for one
// analysis pass.
//
// # Overview
//
// The ownership engine constantly asks the same questions about syntax: what
// object does this expression denote, where was it declared, who is the parent
// of this node, where is this variable read, and where is it written. [Model]
// answers them from indexes built once per pass.
//
// # Building
//
//	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
//	model := symbol.New(pass, insp)
//
// New walks every file once with [inspector.Inspector.WithStack], recording
// parents and assignments, and then inverts pass.TypesInfo.Uses into a usage
// index. After New returns the Model is never mutated, so it can be shared by
// concurrent workers.
//
// # Queries
//
//   - [Model.ObjectOf], [Model.VarOf], [Model.TypeOf]: resolve expressions
//   - [Model.DeclOf], [Model.FuncDeclOf]: find declarations in the package
//   - [Model.Parent], [Model.ParentSkipParens]: navigate upwards
//   - [Model.Usages], [Model.UsagesIn]: reads of a variable
//   - [Model.Assignments], [Model.AssignmentsBefore]: writes to a variable,
//     including struct literal fields and range values
//   - [Model.IsLocal], [Model.IsParam], [Model.IsPackageLevel]: variable kinds
//   - [Model.IsAssignable], [Model.IsAccessibleAt]: type and visibility tests
//
// Objects declared outside the analysed package have no declaration; callers
// fall back to conservative answers for them.
package symbol
