package main

import (
	"os"

	"github.com/cozy/apps-engine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
