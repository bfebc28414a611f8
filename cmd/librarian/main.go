// Command librarian is the desk-side admin tool. It works directly on the
// configured store, so it can run while the HTTP service is down.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
