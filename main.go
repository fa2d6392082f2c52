package main

import (
	"os"

	"github.com/skyfreight/cargoplan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
