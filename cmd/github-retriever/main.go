package main

import (
	"github-retriever/cmd/github-retriever/commands"
	"github-retriever/internal/components/serviceutil"

	"github.com/joho/godotenv"
)

func main() {
	// a missing .env file is fine
	_ = godotenv.Load()
	commands.ExecuteContext(serviceutil.SignalContext())
}
