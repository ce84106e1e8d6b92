// Command vocabd runs the vocabulary review scheduler: an HTTP server for
// study sessions plus maintenance commands for the item store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
