package main

import (
	"github.com/joho/godotenv"

	"github.com/vishwakarma-31/jarvis/internal/cli"
)

func main() {
	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()
	cli.Execute()
}
