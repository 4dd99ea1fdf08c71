// learnctl drives the learning pipeline from the command line. Results are
// written to stdout as JSON; logs go to stderr.
//
// Usage:
//
//	learnctl run "<goal>"
//	learnctl learning-path "<goal>"
//	learnctl refine --path <path.json> --feedback <feedback.json> [--goal "<goal>"]
//	learnctl refine --path-id <id> --feedback <feedback.json>
//	learnctl batch --file <goals.txt> [--parallel N]
//	learnctl search "<query>"
//	learnctl mcp
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
