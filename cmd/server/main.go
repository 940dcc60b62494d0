// Package main implements the entry point for the task API server. Besides
// serving HTTP, the binary carries maintenance subcommands.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
