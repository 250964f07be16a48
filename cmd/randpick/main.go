package main

import (
	"os"

	"github.com/conorfennell/randpick/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
