package main

import (
	"os"

	"breakout_bot/cmd/breakoutctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
