// Command dashboard serves the photo-translation analysis dashboard and
// exports its tables.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
