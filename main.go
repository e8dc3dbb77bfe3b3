package main

import (
	"github.com/joho/godotenv"

	"arb-spread-alerts/internal/cli"
)

func main() {
	// Optional .env file; absence is not an error.
	_ = godotenv.Load()

	cli.Execute()
}
