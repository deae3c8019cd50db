package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"notesapp/internal/auth"
	"notesapp/internal/client"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("notes: %v", err)
	}
}

func run() error {
	server := flag.String("server", envOr("NOTES_SERVER", "http://localhost:8080"), "notes API base URL")
	token := flag.String("token", os.Getenv("NOTES_TOKEN"), "bearer token; read from the token store when empty")
	save := flag.Bool("save-token", false, "remember --token for later runs")
	flag.Parse()

	store, err := client.DefaultTokenStore()
	if err != nil {
		return err
	}

	if *token == "" {
		if *token, err = store.Load(); err != nil {
			return err
		}
	} else if *save {
		if err := store.Save(*token); err != nil {
			return err
		}
	}
	if *token == "" {
		return errors.New("no token: pass --token or set NOTES_TOKEN")
	}

	user, err := auth.Peek(*token)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := client.NewAPI(*server, nil)
	session := client.Session{Token: *token, User: &user}

	if _, err := tea.NewProgram(NewModel(ctx, api, session, store), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
