package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/credilex/parecer/internal/cli"
)

func main() {
	// Load .env if present; deployed environments set variables directly
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
