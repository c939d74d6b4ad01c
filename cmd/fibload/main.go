// Package main is the fibload entrypoint.
package main

import "github.com/utkarsh5026/fibload/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
