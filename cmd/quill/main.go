package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe()
	case "migrate":
		err = runMigrate()
	case "user":
		err = runUser(os.Args[2:])
	case "token":
		err = runToken(os.Args[2:])
	case "version":
		fmt.Printf("quill %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`quill - a small blog platform with a JSON RPC API

Usage:
  quill <command> [arguments]

Commands:
  serve                          Start the HTTP server
  migrate                        Create or upgrade the database schema
  user add <email> [flags]       Register a user (--name, --role, --password)
  user role <email> <role>       Change a user's role
  token <email> [--ttl 24h]      Print a bearer token (requires QUILL_JWT_SECRET)
  version                        Print the quill version
  help                           Show this help message

Configuration is read from the YAML file named by QUILL_CONFIG and from
QUILL_-prefixed environment variables (QUILL_SESSION_SECRET, QUILL_DATABASE_PATH, ...).`)
}
