package main

import (
	"os"

	"github.com/wonny/twitstock/cmd/twitstock/commands"
)

// main is the entry point for the twitstock CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/twitstock [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
