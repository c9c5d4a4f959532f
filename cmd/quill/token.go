package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/eringen/quill"
)

func runToken(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: quill token <email> [--ttl 24h] [--name N]")
	}
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	name := fs.String("name", "", "display name claim")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("QUILL_JWT_SECRET is not set")
	}
	token, err := quill.NewTokenIssuer([]byte(cfg.JWTSecret)).Issue(args[0], *name, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
