package transferflag

import (
	"io"
	"os"
)

// [BAD]: Marked by -ownership-transfer and never closed
func keep(c io.Closer) { // want `parameter "c" takes ownership but is never closed`
}

// [GOOD]: Marked by -ownership-transfer and kept in a collection
func (s *Sink) Put(c io.Closer) {
	s.items = append(s.items, c)
}

type Sink struct {
	items []io.Closer
}

// [GOOD]: Caller hands the file over
func caller(s *Sink) {
	f, err := os.Open("a.txt")
	if err != nil {
		return
	}
	s.Put(f)
}
