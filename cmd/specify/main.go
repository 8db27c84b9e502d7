package main

import (
	"os"

	"github.com/ariel-frischer/specify/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
