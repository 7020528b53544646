// Example program demonstrating the CLI terminal adapter.
//
// Usage:
//
//	go run main.go                 # run the default shell
//	go run main.go -- vim file.txt  # run vim
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phroun/termcore/cli"
)

func main() {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}
	var args []string
	for i, arg := range os.Args[1:] {
		if arg == "--" {
			rest := os.Args[i+2:]
			if len(rest) > 0 {
				shell = rest[0]
				args = rest[1:]
			}
			break
		}
	}

	term := cli.New(cli.Options{
		BorderStyle:    cli.BorderRounded,
		Title:          "termcore",
		ShowStatusBar:  true,
		ScrollbackSize: 10000,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		term.Stop()
		os.Exit(0)
	}()

	exitErr := make(chan error, 1)
	term.OnExit(func(err error) { exitErr <- err })

	if err := term.RunCommand(shell, args...); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run command: %v\n", err)
		os.Exit(1)
	}

	if err := <-exitErr; err != nil {
		os.Exit(1)
	}
}
