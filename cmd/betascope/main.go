package main

import (
	"os"

	"github.com/wonny/betascope/cmd/betascope/commands"
)

// main is the entry point for the betascope CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/betascope [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
