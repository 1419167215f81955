// Package main is the entry point for oidc-prompt.
package main

import (
	"fmt"
	"os"

	"github.com/oidcd/oidcd/cmd/oidc-prompt/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "there was an error: %v\n", err)
		os.Exit(1)
	}
}
