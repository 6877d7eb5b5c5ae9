package disabled

import "os"

// [GOOD]: The created checker is turned off
func leak() {
	f, _ := os.Open("a.txt")
	_ = f.Name()
}

// [BAD]: Other checkers still run
func dropped() {
	os.Create("b.txt") // want `closer created by os.Create is discarded`
}
