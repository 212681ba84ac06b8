package main

import (
	"fmt"
	"os"
	sys "os"
)

func helper() {
	os.Exit(2)
}

func main() {
	fmt.Println("starting")
	if len(os.Args) > 3 {
		helper()
	}

	defer func() {
		os.Exit(3)
	}()

	sys.Exit(4) // want "avoid using os.Exit in main.main"
	os.Exit(1)  // want "avoid using os.Exit in main.main"
}
