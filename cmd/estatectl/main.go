// Package main is the entry point for the estatectl CLI tool.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/dumitrugolubov/dubai-estate-ai/cmd/estatectl/cmd"
)

func main() {
	_ = godotenv.Load()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
