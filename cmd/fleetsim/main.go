// Command fleetsim runs a fishing fleet whose boats adapt where they fish.
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fleetsim failed", "error", err)
		os.Exit(1)
	}
}
