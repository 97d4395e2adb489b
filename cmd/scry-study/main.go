// Package main implements scry-study, a command-line flashcard trainer that
// keeps its decks in a local SQLite database.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
