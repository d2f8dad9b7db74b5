// Package main is the entry point for the trackctl admin tool.
package main

import (
	"os"

	"github.com/ashen-heron/trackd/cmd/trackctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
