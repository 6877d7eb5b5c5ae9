package main

import (
	"fmt"
	"io"
	"os"
)

func keep(c io.Closer) {
	fmt.Println(c)
}

func main() {
	f, err := os.Open("go.mod")
	if err != nil {
		panic(err)
	}
	defer f.Close()
	keep(f)
}
