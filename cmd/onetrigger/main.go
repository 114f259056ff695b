package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const usage = `OneTrigger - Trigger webhooks by Onedata events

Usage:
  onetrigger <command> [flags]

Commands:
  run          Watch a space and send an event for every new file
  list-spaces  List the spaces available to the token
  sweep        Notify files modified within the last execution window and exit
  version      Print the version

Run "onetrigger <command> -h" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Environ(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit code
func run(ctx context.Context, args, environ []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	switch args[0] {
	case "run":
		return runCommand(ctx, args[1:], environ, stderr)
	case "list-spaces":
		return listSpacesCommand(ctx, args[1:], environ, stdout, stderr)
	case "sweep":
		return sweepCommand(ctx, args[1:], environ, stdout, stderr)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "onetrigger %s\n", version)
		return 0
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}
