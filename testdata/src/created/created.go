package created

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// [BAD]: Opened and only read through a method
func leak() {
	f, err := os.Open("a.txt") // want `closer assigned to "f" is never closed`
	if err != nil {
		return
	}
	fmt.Println(f.Name())
}

// [GOOD]: Deferred Close
func deferred() error {
	f, err := os.Open("a.txt")
	if err != nil {
		return err
	}
	defer f.Close()
	return nil
}

// [GOOD]: Returned to the caller
func returned() (*os.File, error) {
	f, err := os.Open("a.txt")
	if err != nil {
		return nil, err
	}
	return f, nil
}

// [BAD]: Handed to a reader that does not close it
func readAll() ([]byte, error) {
	f, err := os.Open("a.txt") // want `closer assigned to "f" is never closed`
	if err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}

// [BAD]: Wrapped in a scanner that never closes it
func scan() {
	f, err := os.Open("a.txt") // want `closer assigned to "f" is never closed`
	if err != nil {
		return
	}
	s := bufio.NewScanner(f)
	for s.Scan() {
		fmt.Println(s.Text())
	}
}

// [BAD]: Nil checks do not close
func nilChecked() {
	f, _ := os.Open("a.txt") // want `closer assigned to "f" is never closed`
	if f == nil {
		return
	}
}

// Must panics on error and passes v through.
//
//vt:helper
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// [BAD]: Generic pass-through keeps the creation visible
func identity() {
	f := Must(os.Open("a.txt")) // want `closer assigned to "f" is never closed`
	_ = f.Name()
}

// [GOOD]: Generic pass-through then Close
func identityClosed() {
	f := Must(os.Open("a.txt"))
	defer f.Close()
}

// [GOOD]: Kept in a slice the caller receives
func collect(names []string) []io.Closer {
	var out []io.Closer
	for _, n := range names {
		f, err := os.Open(n)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

// [GOOD]: Borrowed package variable
func stdout() {
	w := os.Stdout
	fmt.Fprintln(w, "hello")
}

// [GOOD]: Closed through a func literal
func closedByLiteral() {
	release := func(c io.Closer) { _ = c.Close() }
	f, _ := os.Open("a.txt")
	release(f)
}

// [BAD]: Leaked through a cycle of aliases
func aliasCycle() {
	f, _ := os.Open("a.txt") // want `closer assigned to "f" is never closed`
	g := f                   // want `closer assigned to "g" is never closed`
	f = g
	_ = f.Name()
}

// [GOOD]: Closed after a cycle of aliases
func aliasCycleClosed() {
	f, _ := os.Open("a.txt")
	g := f
	f = g
	defer f.Close()
}
