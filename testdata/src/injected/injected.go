package injected

import (
	"io"
	"os"
)

// [BAD]: Closes a reader the caller still owns
func closesParam(r io.ReadCloser) error {
	defer r.Close() // want `do not close injected "r"`
	_, err := io.ReadAll(r)
	return err
}

// [GOOD]: Declared to take ownership
//
//closerown:owns r
func takesIt(r io.ReadCloser) error {
	defer r.Close()
	_, err := io.ReadAll(r)
	return err
}

// [BAD]: Closes a process-wide stream
func closesStdout() {
	os.Stdout.Close() // want `do not close injected "Stdout"`
}

// [GOOD]: Func literal parameters are not checked
func closesLiteralParam() {
	release := func(c io.Closer) { c.Close() }
	f, _ := os.Open("a.txt")
	release(f)
}

// [GOOD]: Closes what it opened
func closesOwn() {
	f, err := os.Open("a.txt")
	if err != nil {
		return
	}
	f.Close()
}
