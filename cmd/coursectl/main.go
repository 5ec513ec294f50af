// Package main provides the entry point for coursectl.
//
// coursectl manages courses from the terminal using the same session store,
// API client and navigation guard as the course portal.
package main

import (
	"fmt"
	"os"

	"course-portal/internal/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
