package main

import (
	"fmt"
	"os"

	"printforge/cmd/printforge/cmd"
	"printforge/internal/config"
)

func main() {
	if _, err := config.InitializeConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration warning: %v\n", err)
		// Continue; subcommands that need keys fail fast on their own
	}

	cmd.Execute()
}
