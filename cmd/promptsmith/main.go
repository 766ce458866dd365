package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/doeshing/promptsmith/internal/infrastructure/cli"
	"github.com/doeshing/promptsmith/internal/infrastructure/config"
)

func main() {
	config.LoadDotEnv()

	opts := cli.Options{Verbose: isVerbose()}
	if err := cli.Execute(context.Background(), opts, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func isVerbose() bool {
	value := os.Getenv("PROMPTSMITH_DEBUG")
	return strings.EqualFold(value, "1") || strings.EqualFold(value, "true")
}
