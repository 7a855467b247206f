package main

import (
	"fmt"
	"os"

	"golemate/ui"
)

func main() {
	if err := ui.RunGolemate(); err != nil {
		fmt.Fprintf(os.Stderr, "error golemate: %v\n", err)
		os.Exit(1)
	}
}
