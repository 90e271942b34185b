package main

import (
	"os"

	"github.com/rl1809/cash-dispenser/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
