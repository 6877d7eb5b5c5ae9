// Package ownership decides who is responsible for closing a value.
//
// # Classification
//
// [Classifier.Classify] sorts variables into three groups:
//
//   - Owned: locals, and parameters that acquire ownership
//   - Borrowed: other parameters, receivers, package-level variables and
//     exported fields
//   - Undecided: unexported fields, which the caller settles by following
//     what gets assigned to them
//
// # Ownership Transfer
//
// A parameter acquires ownership when any of these name it:
//
//	//closerown:owns conn
//	func Adopt(conn net.Conn) *Client
//
//	-ownership-transfer=example.com/db.Pool.Adopt:0
//
//	# closerown.yaml
//	ownership_transfer_options:
//	  - parameter: 0
//	    symbol: "(*example.com/db.Pool).Adopt"
//	    type: Pool
//	    namespace: example.com/db
//	    assembly: example.com
//
// # Configuration
//
// [Load] reads a JSON or YAML file once per process per path. Malformed
// files, unknown keys, negative parameter ordinals, empty symbols and invalid
// assembly import paths yield errors wrapping [ErrInvalidConfig] that name the
// file and, where known, the line.
package ownership
