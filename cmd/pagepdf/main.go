// pagepdf renders the page manifest into one combined PDF.
//
// Usage:
//
//	pagepdf serve [options]
//	pagepdf render [options] [-o out.pdf] [-p id,id,...]
//	pagepdf bind --db <path> --page <id> [-f bindings.yaml] [--set key=value ...]
//	pagepdf info <file.pdf>
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string, stdout io.Writer) error {
	switch cmd {
	case "serve":
		return runServe(ctx, args)
	case "render":
		return runRender(ctx, args, stdout)
	case "bind":
		return runBind(ctx, args, stdout)
	case "info":
		return runInfo(args, stdout)
	case "version":
		fmt.Fprintf(stdout, "pagepdf %s\n", Version)
		return nil
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `pagepdf - combined page PDF renderer

Usage:
  pagepdf serve [options]
  pagepdf render [options] [-o out.pdf] [-p id,id,...]
  pagepdf bind --db <path> --page <id> [-f bindings.yaml] [--set key=value ...]
  pagepdf info <file.pdf>

Commands:
  serve     Serve the combined PDF over HTTP
  render    Render the combined PDF to a file
  bind      Store template bindings for a page
  info      Print the page count of a PDF file
  version   Print the version

Common options (env PAGEPDF_*):
  --chrome <path>        Chrome/Chromium executable
  --auto-download        Download Chromium when none is configured
  --no-sandbox           Disable the Chrome sandbox
  --timeout <dur>        Per-page navigation timeout (default 30s)
  --settle <dur>         Wait after navigation (default 1.5s)
  --manifest <file>      Page manifest YAML (default: built-in)
  --db <file>            SQLite binding store
  --log-level <level>    debug, info, warn, error
  --log-format <fmt>     json, console

Examples:
  pagepdf serve --addr :8080 --no-sandbox
  pagepdf render -o apartment.pdf -p cover,customer
  pagepdf bind --db pages.db --page cover --set building=B2 --set floor=03
  pagepdf info combined_pages.pdf
`)
}
