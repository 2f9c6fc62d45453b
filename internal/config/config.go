// Package config builds the cobra/viper-backed command line and
// environment configuration for the gamesync server.
//
// Grounded on Seednode-partybox's root command (config.go): a pflag.FlagSet
// normalized to hyphenated names, bound to a viper instance with an
// application-specific env prefix via BindPFlag/BindEnv, with any
// viper-only value (an env var the user set but no flag touched) written
// back into the flag before the command runs.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the full set of tunables spec.md §6 and its ambient stack
// need: the wire listen address, the per-lobby capacity (spec.md's
// ServerParams.player_count), and logging verbosity.
type Config struct {
	Bind      string
	Port      int
	LobbySize int
	Verbose   bool
	ConfigFile string
}

// Validate rejects combinations that would fail later in a less legible
// way, the way partybox's Config.validate does for its TLS flag pair.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.LobbySize < 1 {
		return fmt.Errorf("invalid lobby size (must be positive): %d", c.LobbySize)
	}
	return nil
}

// Addr returns the host:port pair to listen on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// BindFlags registers every flag on fs, wires them to a GAMESYNC_-prefixed
// viper environment binding, and normalizes underscore flag names to
// hyphenated ones so GAMESYNC_LOBBY_SIZE and --lobby-size agree.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix("GAMESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&c.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: GAMESYNC_BIND)")
	fs.IntVarP(&c.Port, "port", "p", 7777, "port to listen on (env: GAMESYNC_PORT)")
	fs.IntVar(&c.LobbySize, "lobby-size", 2, "players required per lobby before it may queue (env: GAMESYNC_LOBBY_SIZE)")
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "enable debug-level logging (env: GAMESYNC_VERBOSE)")
	fs.StringVar(&c.ConfigFile, "config", "", "optional YAML config file overriding defaults")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

// LoadFile merges YAML config values into c for any field the file sets
// and the command line left at its flag default. File values never
// override an explicit flag or environment variable.
func LoadFile(path string, c *Config, fs *pflag.FlagSet) error {
	if path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	if !fs.Changed("bind") && v.IsSet("bind") {
		c.Bind = v.GetString("bind")
	}
	if !fs.Changed("port") && v.IsSet("port") {
		c.Port = v.GetInt("port")
	}
	if !fs.Changed("lobby-size") && v.IsSet("lobby_size") {
		c.LobbySize = v.GetInt("lobby_size")
	}
	if !fs.Changed("verbose") && v.IsSet("verbose") {
		c.Verbose = v.GetBool("verbose")
	}
	return nil
}

// NewRootCommand wires Config into a cobra command's (local) flags, the
// way Seednode-partybox's newCmd wires its Config.
func NewRootCommand(cfg *Config, runE func(cmd *cobra.Command, args []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gamesyncd",
		Short:         "Real-time session and matchmaking server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := LoadFile(cfg.ConfigFile, cfg, cmd.Flags()); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runE(cmd, args)
		},
	}

	cfg.BindFlags(cmd.Flags())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}
