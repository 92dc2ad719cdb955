package main

import (
	"fmt"
	"os"

	"tte/cli"
)

func main() {
	if err := cli.RunCLI(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.Message(err))
		os.Exit(1)
	}
}
