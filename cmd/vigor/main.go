// Package main is the single-binary entrypoint for Vigor.
package main

import "github.com/vigor-app/vigor/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
