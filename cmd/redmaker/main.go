package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/marthink/redmaker/internal/cli"
)

func main() {
	// Load environment variables from an optional .env file. Variables
	// already set in the environment win.
	_ = godotenv.Load()

	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
