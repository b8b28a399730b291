package main

import (
	"os"

	polyglotcmder "github.com/keepgogogo/polyglot/cmd/polyglot"
)

func main() {
	cmd := polyglotcmder.NewPolyglotCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
