package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		_, _ = os.Stderr.WriteString("migrate: " + err.Error() + "\n")
		os.Exit(1)
	}
}
