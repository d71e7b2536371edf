// Command mem0 is the entry point for the grounded-memory question
// answering system. It provides a CLI interface (via Cobra) and an
// optional HTTP server exposing the same capabilities over REST/SSE.
package main

import (
	"fmt"
	"os"

	"github.com/vk8459698/mem0-ai/cmd/mem0/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
