package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lectern-app/lectern/internal/config"
	"github.com/lectern-app/lectern/internal/database"
	"github.com/lectern-app/lectern/internal/entities"
	"github.com/lectern-app/lectern/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "create-user":
		if err := runCreateUser(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "-h", "--help", "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runCreateUser registers a user and prints the generated API token.
func runCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	name := fs.String("name", "", "Display name")
	username := fs.String("username", "", "Unique username (required)")
	mobile := fs.String("mobile", "", "Mobile number")
	email := fs.String("email", "", "Email address")
	admin := fs.Bool("admin", false, "Grant admin role")
	dbPath := fs.String("db", "", "Database path (defaults to DATABASE_PATH)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		return fmt.Errorf("username is required")
	}

	path := *dbPath
	if path == "" {
		path = config.NewConfig().Database.Path
	}

	db, err := database.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	role := entities.RoleUser
	if *admin {
		role = entities.RoleAdmin
	}

	user, err := db.CreateUser(*name, *username, *mobile, *email, role)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Printf("Created user %q (id %d, role %s)\n", user.Username, user.ID, user.Role)
	fmt.Printf("API token: %s\n", user.Token)
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve        Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  create-user  Register a user and print their API token\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
