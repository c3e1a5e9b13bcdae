package main

import (
	"os"

	"github.com/spigell/unimatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
