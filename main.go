package main

import (
	"fmt"
	"os"

	"github.com/mertwole/bencode-cli/command"
)

func main() {
	if err := command.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
