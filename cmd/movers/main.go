package main

import (
	"os"

	"github.com/wonny/movers/cmd/movers/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
