package main

import (
	"os"

	"github.com/medinsights/backend/cmd/medinsights/commands"
)

// main is the entry point for the MedInsights CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
