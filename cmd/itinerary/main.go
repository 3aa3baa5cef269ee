// Command itinerary runs the timeline expansion and budget analysis over a
// trip snapshot file, without a database or server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newCLIApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
