// Package main is the entrypoint for ssgfxd, the screensaver coordinator.
package main

import "github.com/scicoord/ssgfx/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
