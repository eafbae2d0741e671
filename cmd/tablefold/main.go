package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/tablefold/internal/cli"
	"github.com/rshade/tablefold/pkg/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.GetVersion())
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
