package main

import (
	"errors"
	"os"

	"github.com/wesleyorama2/pubstress/internal/cli"
)

// Main is the entry point for the application
// It's exported to make it testable
func Main() int {
	if err := cli.Execute(); err != nil {
		if errors.Is(err, cli.ErrInterrupted) {
			return 130
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(Main())
}
