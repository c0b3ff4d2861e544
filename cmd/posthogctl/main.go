package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PratikDhanave/analytics-bridge/internal/config"
	"github.com/PratikDhanave/analytics-bridge/internal/logging"
	"github.com/PratikDhanave/analytics-bridge/internal/posthog"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code. Usage errors,
// integrity failures and resolve failures are non-zero; delete and capture
// are best-effort.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}

	command := strings.ToLower(args[0])
	args = args[1:]

	// Validate arguments before touching configuration.
	var ev posthog.Event
	switch command {
	case "resolve", "delete":
		if len(args) < 1 {
			fmt.Fprintf(stderr, "usage: posthogctl %s <email>\n", command)
			return exitUsage
		}
	case "capture":
		var err error
		if ev, err = parseCapture(args); err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", command)
		printUsage(stderr)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	logger := logging.New(stderr, cfg.LogLevel)
	client := posthog.New(posthog.Settings(cfg.PostHog), logger)
	ctx := context.Background()

	switch command {
	case "resolve":
		id, found, err := client.ResolveUserID(ctx, args[0])
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		if !found {
			fmt.Fprintf(stderr, "no person with distinct id %s\n", args[0])
			return exitFailure
		}
		fmt.Fprintln(stdout, id)

	case "delete":
		// Best-effort: only an integrity failure is fatal.
		if err := client.DeleteUser(ctx, args[0]); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		fmt.Fprintln(stdout, "OK")

	case "capture":
		client.CaptureEvent(ctx, ev)
		fmt.Fprintln(stdout, "OK")
	}
	return exitOK
}

// parseCapture reads: <email> <event> [json-properties] [--flags]
func parseCapture(args []string) (posthog.Event, error) {
	var ev posthog.Event
	var positional []string
	for _, a := range args {
		if a == "--flags" {
			ev.SendFeatureFlags = true
			continue
		}
		positional = append(positional, a)
	}
	if len(positional) < 2 {
		return ev, fmt.Errorf("usage: posthogctl capture <email> <event> [json-properties] [--flags]")
	}
	ev.DistinctID = positional[0]
	ev.Name = positional[1]
	if len(positional) > 2 {
		if err := json.Unmarshal([]byte(positional[2]), &ev.Properties); err != nil {
			return ev, fmt.Errorf("properties must be a JSON object: %w", err)
		}
	}
	return ev, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "posthogctl - PostHog person and event tool")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  posthogctl resolve <email>")
	fmt.Fprintln(w, "  posthogctl delete <email>")
	fmt.Fprintln(w, "  posthogctl capture <email> <event> [json-properties] [--flags]")
	fmt.Fprintln(w, "\nEnvironment Variables:")
	fmt.Fprintln(w, "  POSTHOG_API_SECRET    Personal API key (resolve, delete)")
	fmt.Fprintln(w, "  POSTHOG_PROJECT_ID    Project id (resolve, delete)")
	fmt.Fprintln(w, "  POSTHOG_KEY           Project ingestion key (capture)")
	fmt.Fprintln(w, "  POSTHOG_API_HOST      REST API host (default: https://app.posthog.com)")
	fmt.Fprintln(w, "  POSTHOG_HOST          Ingestion host (default: https://app.posthog.com)")
}
