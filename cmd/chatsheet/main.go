// Package main provides the entry point for the chatsheet CLI.
package main

import (
	"os"

	"github.com/nao1215/chatsheet/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
