package main

import (
	"os"

	"github.com/JonMunkholm/banboard/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
