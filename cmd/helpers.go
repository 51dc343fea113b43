package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/igraph100/DW-Spectrum/internal/client"
	"github.com/igraph100/DW-Spectrum/internal/config"
	"github.com/igraph100/DW-Spectrum/internal/events"
	"github.com/igraph100/DW-Spectrum/internal/integration"
	"github.com/igraph100/DW-Spectrum/internal/store"
)

// session is one connected instance plus the resources it holds open.
type session struct {
	api      *client.SpectrumClient
	inst     *integration.Instance
	db       *store.DB
	notifier *events.Notifier
}

// openSession connects with the saved configuration and loads the
// persisted caches. Nothing is fetched yet.
func openSession() (*session, error) {
	cfg := config.Connection(viper.GetViper())
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	dir, err := config.StateDir(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := store.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		return nil, err
	}

	api := client.New(cfg)
	notifier := events.NewNotifier()
	inst, err := integration.New(config.InstanceName(viper.GetViper()), cfg, api, db, notifier, config.Intervals(viper.GetViper()))
	if err != nil {
		notifier.Close()
		db.Close()
		return nil, err
	}
	return &session{api: api, inst: inst, db: db, notifier: notifier}, nil
}

// mustSession opens a session and refreshes every snapshot once, exiting on
// failure like the rest of the commands do.
func mustSession(ctx context.Context) *session {
	s, err := openSession()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := s.inst.Refresh(ctx); err != nil {
		s.close(ctx)
		exitOnAPIError("Error fetching data", err)
	}
	return s
}

func (s *session) close(ctx context.Context) {
	s.inst.Close(ctx)
	s.notifier.Close()
	if err := s.db.Close(); err != nil {
		fmt.Printf("Warning: closing cache: %v\n", err)
	}
}

func exitOnAPIError(msg string, err error) {
	switch {
	case client.IsAuthError(err):
		fmt.Printf("%s: invalid credentials (%v). Run 'spectrum-cli login' again.\n", msg, err)
	case client.IsConnectivityError(err):
		fmt.Printf("%s: cannot reach the server (%v)\n", msg, err)
	default:
		fmt.Printf("%s: %v\n", msg, err)
	}
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Printf("Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func onOff(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
