package main

import (
	"fmt"
	"os"

	"github.com/bytevault/bytevault/cmd/bytevault/commands"

	// Import prometheus metrics to register init() functions
	_ "github.com/bytevault/bytevault/pkg/metrics/prometheus"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
