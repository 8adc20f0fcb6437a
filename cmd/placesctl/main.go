// Package main is the entry point of the placesctl terminal client.
package main

import (
	"os"

	"github.com/manzanit0/placefinder/cmd/placesctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
