package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/eringen/quill"
	"github.com/eringen/quill/store"
)

func runUser(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: quill user <add|role> ...")
	}
	switch args[0] {
	case "add":
		return runUserAdd(args[1:])
	case "role":
		return runUserRole(args[1:])
	default:
		return fmt.Errorf("unknown user command %q", args[0])
	}
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.DatabasePath)
}

func runUserAdd(args []string) error {
	fs := flag.NewFlagSet("user add", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	role := fs.String("role", "user", `role ("admin" may edit posts)`)
	password := fs.String("password", os.Getenv("QUILL_USER_PASSWORD"), "login password (or QUILL_USER_PASSWORD)")
	if len(args) == 0 {
		return errors.New("usage: quill user add <email> [--name N] [--role R] [--password P]")
	}
	email := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	nu := store.NewUser{Email: email, Role: *role}
	if *name != "" {
		nu.Name = name
	}
	if *password != "" {
		hash, err := quill.HashPassword(*password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		nu.PasswordHash = hash
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, err := st.CreateUser(ctx, nu)
	if err != nil {
		return err
	}
	color.Green("Created user %d <%s> with role %q", u.ID, u.Email, u.Role)
	if u.PasswordHash == "" {
		color.Yellow("No password set: this user can only authenticate with a bearer token.")
	}
	return nil
}

func runUserRole(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: quill user role <email> <role>")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := st.SetUserRole(ctx, args[0], args[1]); err != nil {
		return err
	}
	color.Green("%s now has role %q", args[0], args[1])
	return nil
}
