package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nix-humanity/ask-nix/internal/infrastructure/cli"
)

func main() {
	ctx := context.Background()
	opts := cli.Options{Verbose: isVerbose()}

	root, err := cli.NewRootCmd(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *cli.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func isVerbose() bool {
	value := os.Getenv("NIX_HUMANITY_DEBUG")
	return strings.EqualFold(value, "1") || strings.EqualFold(value, "true")
}
