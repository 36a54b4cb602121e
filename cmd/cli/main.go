package main

import (
	"os"

	"github.com/reviewd-dev/reviewd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
