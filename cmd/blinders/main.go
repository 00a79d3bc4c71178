// Package main provides the entry point for the blinders CLI.
package main

import "os"

func main() {
	os.Exit(exitCode(Execute(), os.Stderr))
}
