package main

import (
	"os"

	"github.com/wonny/quantbt/cmd/quantbt/commands"
)

// main is the entry point for the quantbt CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/quantbt [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
