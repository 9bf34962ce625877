package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/threat-response/pkg/runtime/app"
	"github.com/de-tools/threat-response/pkg/runtime/terminal"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cli := terminal.NewCLI(terminal.Options{
		Factory:   app.New,
		Output:    os.Stdout,
		LogOutput: os.Stderr,
	})

	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
