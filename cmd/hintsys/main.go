package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "doctor":
		err = cmdDoctor()
	case "config":
		err = cmdConfig()
	case "migrate":
		err = cmdMigrate()
	case "problems":
		err = cmdProblems()
	case "grade":
		err = cmdGrade(os.Args[2:])
	case "hint":
		err = cmdHint(os.Args[2:])
	case "mastery":
		err = cmdMastery(os.Args[2:])
	case "badges":
		err = cmdBadges(os.Args[2:])
	case "enqueue":
		err = cmdEnqueue(os.Args[2:])
	case "mcp":
		err = cmdMCP(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("hintsys %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`hintsys - Grading and hint selection for Python practice problems

Usage:
  hintsys <command> [arguments]

Setup Commands:
  init            Create ~/.hintsys with a default configuration
  doctor          Check python3, pycodestyle, docker and storage
  config          Show the effective configuration
  migrate         Apply pending database migrations

Grading Commands:
  grade   <user-id> <problem-id> <file.py>   Grade a submission and update mastery
  hint    <user-id> <problem-id> <file.py>   Select the hint branch for the code
  mastery <user-id> <problem-id>             Show stars, best score and status
  badges  <user-id>                          List earned badges
  problems                                   List available problems

Queue Commands:
  enqueue <user-id> <problem-id> <file.py>   Grade through the worker queue

Integration Commands:
  mcp             Start MCP server on stdio (--http <addr> for HTTP)

Flags for grade, hint and enqueue:
  -purpose <completion|optimization|optimal>   Override the derived purpose
  -json                                        Print the raw outcome as JSON

Other:
  help            Show this help message
  version         Show version information`)
}

// renderProgressBar creates a visual progress bar for a 0-100 score
func renderProgressBar(score float64, width int) string {
	filled := int(score / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
