package transferconfig

import (
	"fmt"
	"io"
	"os"
)

// [BAD]: Configured to take ownership and never closes
func Adopt(c io.Closer) { // want `parameter "c" takes ownership but is never closed`
	fmt.Println(c)
}

// [GOOD]: The configured callee owns the file
func Caller() {
	f, err := os.Open("a.txt")
	if err != nil {
		return
	}
	Adopt(f)
}
