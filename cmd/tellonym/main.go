// Command tellonym runs the anonymous-note bot: the signed interactions
// webhook, the admin API, and maintenance subcommands.
package main

import (
	"os"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
