package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/tvtaskgraph/internal/app"
	"github.com/vk/tvtaskgraph/internal/cli"
)

// main is the entrypoint of the decision task.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Help and dry-run output go to outW, logs to logW.
func run(outW, logW io.Writer, args []string) (err error) {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// A panic while building descriptors is a programming error; report it
	// as a failed run instead of a stack trace.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decision task panicked: %v", r)
		}
	}()

	return app.NewApp(outW, logW, cfg).Run(context.Background())
}
