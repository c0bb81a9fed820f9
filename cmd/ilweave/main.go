package main

import (
	"errors"

	"github.com/deepnoodle-ai/ilweave/vm"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd.SetVersionTemplate("ilweave {{.Version}} (" + commit + ", " + date + ")\n")
	if err := rootCmd.Execute(); err != nil {
		var exc *vm.Exception
		if errors.As(err, &exc) {
			fatal(exc.FriendlyErrorMessage())
		}
		fatal(err)
	}
}
