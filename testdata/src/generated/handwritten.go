package generated

import "os"

// [BAD]: Hand-written files are still checked
func handwrittenLeak() {
	f, _ := os.Open("a.txt") // want `closer assigned to "f" is never closed`
	_ = f.Name()
}
