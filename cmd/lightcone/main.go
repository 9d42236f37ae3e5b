package main

import (
	"os"

	"github.com/quarkfield/lightcone/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
