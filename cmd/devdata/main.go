// Command devdata loads the development tour data into the configured database
// or clears it.
//
//	devdata import --file dev-data/data/tours.json
//	devdata delete
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
