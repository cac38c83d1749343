package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"reelsync/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode separates configuration failures from run failures so wrappers can
// tell a bad setup apart without parsing stderr.
func exitCode(err error) int {
	if services.IsFatal(err) {
		return 2
	}
	return 1
}
