package main

import (
	"os"

	"github.com/wonny/verdict/cmd/verdict/commands"
)

// main is the entry point for the Verdict CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/verdict [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
