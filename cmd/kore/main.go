// kore - KORE pattern and proof trace CLI tool
//
// Usage:
//
//	kore print [file]                       Print binary patterns as KORE text
//	kore convert [--to binary|text] [file]  Convert between KORE text and binary
//	kore trace [-o text|table|yaml] [file]  Render a binary proof trace
//	kore check file...                      Verify that files decode
//	kore version                            Print version info
//
// If no file is given, reads from stdin.
package main

import (
	"os"

	"github.com/Neumenon/kore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
