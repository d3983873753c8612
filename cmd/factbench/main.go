package main

import (
	"fmt"
	"os"

	"github.com/psantana5/factbench/cmd/factbench/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
