// Package main provides the fanguard command-line front end.
package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/fanguard/pkg/fanguard/output"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, output.RenderError(err))
		os.Exit(1)
	}
}
