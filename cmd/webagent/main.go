// Command webagent drives a browser to accomplish a natural-language task,
// following the teacher's single-binary cmd/nebo entrypoint shape
// (cmd/nebo/vars.go's SetupRootCmd) reduced to this module's much smaller
// command surface: run the agent loop once, or check configuration health.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
