// gamesyncd is the real-time session and matchmaking server.
//
// Usage:
//
//	gamesyncd --port 7777 --lobby-size 2
//
// Every flag also binds to a GAMESYNC_-prefixed environment variable
// (see internal/config), following the single arcade root command the
// teacher builds in cmd/arcade/main.go.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matchforge/gamesync/internal/config"
	"github.com/matchforge/gamesync/internal/session"
	"github.com/matchforge/gamesync/internal/transport"
)

func main() {
	cfg := &config.Config{}
	cmd := config.NewRootCommand(cfg, func(_ *cobra.Command, _ []string) error {
		return run(cfg)
	})

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "gamesyncd",
		Level:           level,
	})

	coordCfg := session.Config{LobbySize: cfg.LobbySize}
	coordinator := session.NewCoordinator(coordCfg, logger)

	srv := transport.New(transport.Config{
		Addr:        cfg.Addr(),
		IdleTimeout: transport.DefaultConfig().IdleTimeout,
	}, coordinator, logger)

	return srv.ListenAndServe()
}
