package main

import (
	"os"

	"github.com/abhisek/remediz/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
