package main

import (
	"os"

	"github.com/alimgiray/formpilot/cmd/server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
