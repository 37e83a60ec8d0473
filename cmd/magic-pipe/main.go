package main

import (
	"os"

	"github.com/marlonsouza/magic-pipe/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
