package main

import (
	"os"

	"stocksim/cmd/stocksim/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
