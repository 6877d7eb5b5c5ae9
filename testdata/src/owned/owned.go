package owned

import (
	"io"
	"os"
)

// [BAD]: Takes ownership and forgets to close
//
//closerown:owns r
func forgets(r io.ReadCloser) { // want `parameter "r" takes ownership but is never closed`
	_, _ = io.ReadAll(r)
}

// [GOOD]: Takes ownership and closes
//
//closerown:owns r - closed when fully read
func closes(r io.ReadCloser) error {
	defer r.Close()
	_, err := io.ReadAll(r)
	return err
}

// [GOOD]: Hands ownership on
//
//closerown:owns c
func handsOn(c io.ReadCloser) {
	_ = closes(c)
}

// [GOOD]: Caller gives the file away
func caller() {
	f, err := os.Open("a.txt")
	if err != nil {
		return
	}
	forgets(f)
}

// [BAD]: Directive names a parameter that does not exist
//
//closerown:owns missing // want `closerown:owns names unknown parameter "missing"`
func typo(r io.Reader) {
	_ = r
}
