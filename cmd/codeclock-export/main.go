// codeclock-export reads the session archive and emits archived codes
// as JSON for report rendering and hand-off.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jmorken/codeclock/internal/config"
	"github.com/jmorken/codeclock/internal/model"
	"github.com/jmorken/codeclock/internal/store"
)

func main() {
	var (
		settingsPath = flag.String("settings", "", "settings yaml path")
		dbPath       = flag.String("db", "", "archive path, overrides settings")
		list         = flag.Bool("list", false, "list archived sessions")
		sessionID    = flag.String("session", "", "session id to export")
	)
	flag.Parse()

	cfg, err := config.Load(*settingsPath)
	if err != nil {
		fatal(err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	ctx := context.Background()
	s, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		fatal(err)
	}
	defer s.Close() //nolint:errcheck

	switch {
	case *list:
		err = listSessions(ctx, s)
	case *sessionID != "":
		err = exportSession(ctx, s, *sessionID)
	default:
		err = fmt.Errorf("nothing to do: pass -list or -session <id>")
	}
	if err != nil {
		fatal(err)
	}
}

func listSessions(ctx context.Context, s *store.Store) error {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return err
	}
	return encode(sessions)
}

type export struct {
	Session model.Session              `json:"session"`
	Journal []model.InterventionRecord `json:"journal"`
}

func exportSession(ctx context.Context, s *store.Store, sessionID string) error {
	sess, records, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	return encode(export{Session: sess, Journal: records})
}

func encode(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "codeclock-export:", err)
	os.Exit(1)
}
