package main

import (
	"os"

	"github.com/spigell/dev-sourcer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
