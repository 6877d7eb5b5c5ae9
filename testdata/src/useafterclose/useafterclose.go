package useafterclose

import (
	"fmt"
	"os"
)

// [BAD]: Read after Close
func readAfterClose() {
	f, err := os.Open("a.txt")
	if err != nil {
		return
	}
	f.Close()
	fmt.Println(f.Name()) // want `"f" is used after Close`
}

// [GOOD]: Reopened before the next read
func reopen() {
	f, err := os.Open("a.txt")
	if err != nil {
		return
	}
	f.Close()
	f, err = os.Open("b.txt")
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Println(f.Name())
}

//vt:helper
func check(f *os.File) error {
	_, err := f.Stat()
	return err
}

// [GOOD]: Closed on the error path only
func closeOnError() error {
	f, err := os.Open("a.txt")
	if err != nil {
		return err
	}
	if err := check(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// [GOOD]: Deferred Close runs last
func deferred() {
	f, err := os.Open("a.txt")
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Println(f.Name())
}
