package main

import (
	"github.com/joho/godotenv"

	"github.com/riseai/rise-chat/internal/cli"
)

func main() {
	// A missing .env is normal for an installed client.
	_ = godotenv.Load()

	cli.Execute()
}
