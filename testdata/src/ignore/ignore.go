package ignore

import (
	"fmt"
	"os"
)

// [GOOD]: Suppressed on the previous line
func previousLine() {
	//closerown:ignore created - closed by the OS at exit
	f, _ := os.Open("a.txt")
	_ = f.Name()
}

// [GOOD]: Suppressed on the same line
func sameLine() {
	g, _ := os.Open("a.txt") //closerown:ignore created
	_ = g.Name()
}

// [GOOD]: Suppressed for every checker
func allCheckers() {
	//closerown:ignore
	os.Create("b.txt")
}

// [BAD]: Directive for a checker that never fires here
func unusedSpecific() {
	//closerown:ignore discarded // want `unused closerown:ignore directive for checker\(s\): discarded`
	f, err := os.Open("a.txt")
	if err != nil {
		return
	}
	defer f.Close()
}

// [BAD]: Directive suppressing nothing
func unusedAll() {
	//closerown:ignore // want `unused closerown:ignore directive`
	fmt.Println("nothing to see")
}

// [BAD]: Suppressing another checker does not hide this one
func wrongChecker() {
	//closerown:ignore discarded // want `unused closerown:ignore directive for checker\(s\): discarded`
	h, _ := os.Open("a.txt") // want `closer assigned to "h" is never closed`
	_ = h.Name()
}
