package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"match-crawler/internal/config"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPath string

	// flagCfg receives raw flag values; only flags the user set are
	// overlaid onto the loaded configuration.
	flagCfg = config.Default()

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "crawler <command>",
	Short:         "Snowball crawler for ranked match data from the Riot Games API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = newLogger(cfg.Verbose)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to a TOML config file")
	pf.StringVar(&flagCfg.APIKey, "api-key", "", "Riot API key (default: RIOT_API_KEY)")
	pf.StringVar(&flagCfg.Platform, "platform", flagCfg.Platform, "platform shard for league/summoner (euw1, na1, kr, ...)")
	pf.StringVar(&flagCfg.Region, "region", flagCfg.Region, "regional routing for match-v5 (europe, americas, asia, sea)")
	pf.BoolVarP(&flagCfg.Verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(validateKeyCmd)
	rootCmd.AddCommand(matchupsCmd)
	rootCmd.AddCommand(recommendCmd)
}

// flagSetters copies one flag's value from src to dst.
var flagSetters = map[string]func(dst, src *config.Config){
	"api-key":             func(d, s *config.Config) { d.APIKey = s.APIKey },
	"platform":            func(d, s *config.Config) { d.Platform = s.Platform },
	"region":              func(d, s *config.Config) { d.Region = s.Region },
	"verbose":             func(d, s *config.Config) { d.Verbose = s.Verbose },
	"target":              func(d, s *config.Config) { d.Target = s.Target },
	"queue":               func(d, s *config.Config) { d.Queue = s.Queue },
	"matchlist-count":     func(d, s *config.Config) { d.MatchlistCount = s.MatchlistCount },
	"max-seed-players":    func(d, s *config.Config) { d.MaxSeedPlayers = s.MaxSeedPlayers },
	"outdir":              func(d, s *config.Config) { d.OutDir = s.OutDir },
	"resume":              func(d, s *config.Config) { d.Resume = s.Resume },
	"flush-threshold":     func(d, s *config.Config) { d.FlushThreshold = s.FlushThreshold },
	"interval":            func(d, s *config.Config) { d.CallInterval = s.CallInterval },
	"backoff":             func(d, s *config.Config) { d.Backoff = s.Backoff },
	"quota":               func(d, s *config.Config) { d.QuotaRequests = s.QuotaRequests },
	"seed-tiers":          func(d, s *config.Config) { d.SeedTiers = s.SeedTiers },
	"seed-puuids":         func(d, s *config.Config) { d.SeedPUUIDs = s.SeedPUUIDs },
	"seed-ids":            func(d, s *config.Config) { d.SeedSummonerIDs = s.SeedSummonerIDs },
	"seed-riot-ids":       func(d, s *config.Config) { d.SeedRiotIDs = s.SeedRiotIDs },
	"seed-puuids-file":    func(d, s *config.Config) { d.SeedPUUIDsFile = s.SeedPUUIDsFile },
	"seed-ids-file":       func(d, s *config.Config) { d.SeedIDsFile = s.SeedIDsFile },
	"sqlite":              func(d, s *config.Config) { d.SQLitePath = s.SQLitePath },
	"archive-dir":         func(d, s *config.Config) { d.ArchiveDir = s.ArchiveDir },
	"validate-key":        func(d, s *config.Config) { d.ValidateKey = s.ValidateKey },
	"discord-webhook":     func(d, s *config.Config) { d.DiscordWebhookURL = s.DiscordWebhookURL },
	"database-url":        func(d, s *config.Config) { d.DatabaseURL = s.DatabaseURL },
	"turso-url":           func(d, s *config.Config) { d.TursoURL = s.TursoURL },
	"quota-window":        func(d, s *config.Config) { d.QuotaWindow = s.QuotaWindow },
	"turso-auth-token":    func(d, s *config.Config) { d.TursoAuthToken = s.TursoAuthToken },
	"archive-max-matches": func(d, s *config.Config) { d.ArchiveMaxMatches = s.ArchiveMaxMatches },
	"archive-max-age":     func(d, s *config.Config) { d.ArchiveMaxAge = s.ArchiveMaxAge },
}

// loadConfig layers defaults, the TOML file, .env and environment, then
// the flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	c := config.Default()
	if configPath != "" {
		if err := config.LoadFile(configPath, &c); err != nil {
			return c, err
		}
	}

	if path, ok := config.LoadDotEnv(config.EnvPaths); ok {
		fmt.Fprintf(os.Stderr, "Loaded .env from: %s\n", path)
	}
	config.ApplyEnv(&c, os.Getenv)

	cmd.Flags().Visit(func(f *pflag.Flag) {
		if set, ok := flagSetters[f.Name]; ok {
			set(&c, &flagCfg)
		}
	})

	if err := c.LoadSeedFiles(); err != nil {
		return c, err
	}
	c.Normalize()
	return c, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
