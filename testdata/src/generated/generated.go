// Code generated by hand for tests. DO NOT EDIT.

package generated

import "os"

func generatedLeak() {
	f, _ := os.Open("a.txt")
	_ = f.Name()
}
