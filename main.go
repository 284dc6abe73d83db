package main

import (
	"os"

	"github.com/joeharson/mushroom-classification/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
