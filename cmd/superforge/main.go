// Command superforge assembles Android super images from unpacked ROMs.
package main

import (
	"fmt"
	"os"

	"github.com/eunmann/superforge/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
