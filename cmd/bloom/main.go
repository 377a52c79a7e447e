package main

import (
	"fmt"
	"os"

	"github.com/chris/bloom/config"
)

func main() {
	app := &App{Config: config.Load(), Out: os.Stdout}
	if err := newRootCmd(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
