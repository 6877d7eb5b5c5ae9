package main

import (
	"fmt"
	"os"
)

func main() {
	f, err := os.Open("go.mod")
	if err != nil {
		panic(err)
	}
	fmt.Println(f.Name())
}
