// verdictd is the verification pipeline daemon. Run without arguments it
// starts the HTTP server; subcommands run one-shot verifications, lint
// rule files, and export evidence bundles without a running server.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// startServer is a variable to allow mocking in tests
var startServer = runServer

// Run is the entrypoint for testing
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		startServer()
		return 0
	}

	switch args[1] {
	case "server":
		startServer()
		return 0
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "rules":
		return runRulesCmd(args[2:], stdout, stderr)
	case "export":
		return runExportCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		if args[1][0] == '-' {
			startServer()
			return 0
		}
		_, _ = fmt.Fprintf(stdout, "Unknown command: %s. Defaulting to server...\n", args[1])
		startServer()
		return 0
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage: verdictd <command> [arguments]")
	_, _ = fmt.Fprintln(w, "\nCommands:")
	_, _ = fmt.Fprintln(w, "  server      Run the verification server (default)")
	_, _ = fmt.Fprintln(w, "  verify      Verify a content file in-process and print the verdict")
	_, _ = fmt.Fprintln(w, "  rules lint  Validate rule files in a directory")
	_, _ = fmt.Fprintln(w, "  export      Verify a content file and export its evidence bundle")
	_, _ = fmt.Fprintln(w, "  help        Show this help")
}
