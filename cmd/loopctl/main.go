// Command loopctl drives a demo baselooper pipeline from the shell, for
// exercising and inspecting the runtime without writing Go.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
