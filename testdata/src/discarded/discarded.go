package discarded

import (
	"io"
	"os"
)

type conn struct{}

func (conn) Close() error { return nil }

// [BAD]: Assigned to the blank identifier
func blank() {
	_, _ = os.Open("a.txt") // want `closer created by os.Open is discarded`
}

// [BAD]: Bare call statement
func bareStatement() {
	os.Create("b.txt") // want `closer created by os.Create is discarded`
}

// [BAD]: Literal of a closer type dropped
func literal() {
	_ = &conn{} // want `closer created by &conn\{\} is discarded`
}

//vt:helper
func open() *os.File {
	f, _ := os.Open("a.txt")
	return f
}

//vt:helper
func use(r io.Reader) {
	buf := make([]byte, 8)
	_, _ = r.Read(buf)
}

// [BAD]: Passed to a function that only reads it
func passedToReader() {
	use(open()) // want `closer created by open is discarded`
}

// [GOOD]: Returned directly
func returnsIt() (*os.File, error) {
	return os.Open("a.txt")
}

// [GOOD]: Closed right away
func closedInline() error {
	return open().Close()
}

//vt:helper
func openTwo() (io.Closer, io.Closer) {
	return &conn{}, &conn{}
}

//vt:helper
//closerown:owns a
func closeFirst(a, b io.Closer) {
	a.Close()
}

//vt:helper
//closerown:owns b
func closeSecond(a, b io.Closer) {
	b.Close()
}

//vt:helper
//closerown:owns a,b
func closeBoth(a, b io.Closer) {
	a.Close()
	b.Close()
}

// [BAD]: Second result of a pair dropped by the callee
func pairSecondDropped() {
	closeFirst(openTwo()) // want `closer created by openTwo is discarded`
}

// [BAD]: First result of a pair dropped by the callee
func pairFirstDropped() {
	closeSecond(openTwo()) // want `closer created by openTwo is discarded`
}

// [GOOD]: Both results of a pair closed by the callee
func pairClosed() {
	closeBoth(openTwo())
}
