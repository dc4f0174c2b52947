package main

import (
	"os"

	"github.com/rustyeddy/falcon/cmd/falcon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
