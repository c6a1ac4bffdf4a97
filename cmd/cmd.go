// Package cmd provides the CLI commands for bhujal.
//
// Commands:
//   - chat: interactive terminal chat with the Bubble Tea TUI (default)
//   - ask: answer a single question on stdout
//   - serve: HTTP JSON API server
//   - mcp: Model Context Protocol server on stdio
//   - load: bulk-load a readings CSV into the store
//   - ingest: add reference passages to the corpus
//
// Signal handling and graceful shutdown are implemented for all
// long-running commands via context cancellation.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bhujal-ai/bhujal/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Execute is the main entry point for the bhujal CLI application.
func Execute() error {
	// Initialize the default logger once at entry. Stderr keeps log
	// lines out of the answer stream and off the MCP stdio transport.
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.New(log.Config{Level: level}))

	if len(os.Args) < 2 {
		return runChat()
	}

	switch os.Args[1] {
	case "chat":
		return runChat()
	case "ask":
		return runAsk(os.Args[2:], os.Stdout)
	case "serve":
		return runServe(os.Args[2:])
	case "mcp":
		return runMCP()
	case "load":
		return runLoad(os.Args[2:], os.Stdout)
	case "ingest":
		return runIngest(os.Args[2:], os.Stdout)
	case "version", "--version", "-v":
		runVersion(os.Stdout)
		return nil
	case "help", "--help", "-h":
		runHelp(os.Stdout)
		return nil
	default:
		return fmt.Errorf("unknown command: %s (run \"bhujal help\")", os.Args[1])
	}
}

// runVersion prints the build identity.
func runVersion(w io.Writer) {
	fmt.Fprintf(w, "Bhujal %s\n", Version)
	fmt.Fprintf(w, "Build: %s\n", BuildTime)
	fmt.Fprintf(w, "Commit: %s\n", GitCommit)
}

// runHelp displays the help message.
func runHelp(w io.Writer) {
	fmt.Fprintln(w, "Bhujal - groundwater assessment assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  bhujal [chat]              Start the interactive chat TUI (default)")
	fmt.Fprintln(w, "  bhujal ask \"<question>\"    Answer one question and exit (--json for raw output)")
	fmt.Fprintln(w, "  bhujal serve [addr]        Start the HTTP API server (default: 127.0.0.1:3400)")
	fmt.Fprintln(w, "  bhujal mcp                 Start the MCP server on stdio")
	fmt.Fprintln(w, "  bhujal load <csv>          Replace the readings store with a CSV export")
	fmt.Fprintln(w, "  bhujal ingest <path|url>   Add reference passages to the corpus")
	fmt.Fprintln(w, "  bhujal version             Show version information")
	fmt.Fprintln(w, "  bhujal help                Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Chat commands (in interactive mode):")
	fmt.Fprintln(w, "  /help                      Show available commands")
	fmt.Fprintln(w, "  /clear                     Clear the conversation")
	fmt.Fprintln(w, "  /exit, /quit               Leave the chat")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Shortcuts:")
	fmt.Fprintln(w, "  Enter                      Send (Shift+Enter for a new line)")
	fmt.Fprintln(w, "  Ctrl+C                     Cancel input or the running turn; twice to quit")
	fmt.Fprintln(w, "  Ctrl+D                     Exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  OPENAI_API_KEY             Completion key for the openai provider")
	fmt.Fprintln(w, "  GEMINI_API_KEY             Completion key for the gemini provider")
	fmt.Fprintln(w, "  DATABASE_URL               PostgreSQL URL; unset uses embedded SQLite")
	fmt.Fprintln(w, "  BHUJAL_*                   Config overrides (see ~/.bhujal/config.yaml)")
	fmt.Fprintln(w, "  DEBUG                      Enable debug logging")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Learn more: https://github.com/bhujal-ai/bhujal")
}
