package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"match-crawler/internal/storage"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	MinSeedPlayers    = 50
	MaxMatchlistCount = 100
)

// EnvPaths are searched in order for a .env file; the first one found wins.
var EnvPaths = []string{".env", "../.env", "../../.env"}

// Config is the full crawler configuration. Precedence, lowest first:
// defaults, TOML file, environment (.env included), command-line flags.
type Config struct {
	APIKey   string `toml:"api_key"`
	Platform string `toml:"platform"`
	Region   string `toml:"region"`

	Target         int    `toml:"target"`
	Queue          int    `toml:"queue"`
	MatchlistCount int    `toml:"matchlist_count"`
	MaxSeedPlayers int    `toml:"max_seed_players"`
	OutDir         string `toml:"outdir"`
	Resume         bool   `toml:"resume"`
	FlushThreshold int    `toml:"flush_threshold"`

	CallInterval  time.Duration `toml:"call_interval"`
	Backoff       time.Duration `toml:"backoff"`
	QuotaRequests int           `toml:"quota_requests"`
	QuotaWindow   time.Duration `toml:"quota_window"`

	SeedTiers       []string `toml:"seed_tiers"`
	SeedPUUIDs      []string `toml:"seed_puuids"`
	SeedSummonerIDs []string `toml:"seed_ids"`
	SeedRiotIDs     []string `toml:"seed_riot_ids"`
	SeedPUUIDsFile  string   `toml:"seed_puuids_file"`
	SeedIDsFile     string   `toml:"seed_ids_file"`

	SQLitePath        string `toml:"sqlite_path"`
	DatabaseURL       string `toml:"database_url"`
	TursoURL          string `toml:"turso_url"`
	TursoAuthToken    string `toml:"turso_auth_token"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
	ArchiveDir        string `toml:"archive_dir"`

	ArchiveMaxMatches int           `toml:"archive_max_matches"`
	ArchiveMaxAge     time.Duration `toml:"archive_max_age"`

	ValidateKey bool `toml:"validate_key"`
	Verbose     bool `toml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Platform:       "euw1",
		Region:         "europe",
		Target:         1000,
		Queue:          420,
		MatchlistCount: MaxMatchlistCount,
		MaxSeedPlayers: 300,
		OutDir:         "data_db",
		FlushThreshold: 500,
		CallInterval:   1300 * time.Millisecond,
		Backoff:        3 * time.Second,
		QuotaRequests:  100,
		QuotaWindow:    2 * time.Minute,

		ArchiveMaxMatches: storage.MaxMatchesPerFile,
		ArchiveMaxAge:     storage.MaxFileAge,
	}
}

// LoadFile overlays a TOML file onto cfg. Unknown keys are rejected so typos
// don't silently fall back to defaults.
func LoadFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys in config %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadDotEnv loads the first .env file found in paths into the process
// environment. Variables already set are kept.
func LoadDotEnv(paths []string) (string, bool) {
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, names ...string) {
		for _, name := range names {
			if v := strings.Trim(strings.TrimSpace(getenv(name)), "\""); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&cfg.APIKey, "RIOT_API_KEY", "RIOT-DEV-KEY")
	set(&cfg.DatabaseURL, "DATABASE_URL")
	set(&cfg.TursoURL, "TURSO_DATABASE_URL")
	set(&cfg.TursoAuthToken, "TURSO_AUTH_TOKEN")
	set(&cfg.DiscordWebhookURL, "DISCORD_WEBHOOK_URL")
	set(&cfg.ArchiveDir, "BLOB_STORAGE_PATH")
}

// LoadSeedFiles appends the contents of the configured seed files.
func (c *Config) LoadSeedFiles() error {
	if c.SeedPUUIDsFile != "" {
		ids, err := ReadIDFile(c.SeedPUUIDsFile)
		if err != nil {
			return err
		}
		c.SeedPUUIDs = append(c.SeedPUUIDs, ids...)
	}
	if c.SeedIDsFile != "" {
		ids, err := ReadIDFile(c.SeedIDsFile)
		if err != nil {
			return err
		}
		c.SeedSummonerIDs = append(c.SeedSummonerIDs, ids...)
	}
	return nil
}

// Normalize clamps numeric settings into their accepted ranges.
func (c *Config) Normalize() {
	c.Platform = strings.ToLower(strings.TrimSpace(c.Platform))
	c.Region = strings.ToLower(strings.TrimSpace(c.Region))
	if c.MatchlistCount < 1 {
		c.MatchlistCount = 1
	}
	if c.MatchlistCount > MaxMatchlistCount {
		c.MatchlistCount = MaxMatchlistCount
	}
	if c.MaxSeedPlayers < MinSeedPlayers {
		c.MaxSeedPlayers = MinSeedPlayers
	}
	c.SeedTiers = cleanList(c.SeedTiers)
	for i, t := range c.SeedTiers {
		c.SeedTiers[i] = strings.ToUpper(t)
	}
	c.SeedPUUIDs = cleanList(c.SeedPUUIDs)
	c.SeedSummonerIDs = cleanList(c.SeedSummonerIDs)
	c.SeedRiotIDs = cleanList(c.SeedRiotIDs)
}

// cleanList trims every entry, drops blanks and splits entries that still
// hold commas (TOML strings such as "a, b").
func cleanList(in []string) []string {
	var out []string
	for _, v := range in {
		out = append(out, splitList(v)...)
	}
	return out
}

// Validate reports every setting that makes a crawl impossible.
func (c *Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("missing API key: set RIOT_API_KEY or pass --api-key"))
	}
	if c.Platform == "" || c.Region == "" {
		errs = append(errs, errors.New("platform and region are required"))
	}
	if c.Target < 0 {
		errs = append(errs, fmt.Errorf("target must be >= 0, got %d", c.Target))
	}
	switch c.Queue {
	case 0, 420, 440:
	default:
		errs = append(errs, fmt.Errorf("unsupported queue %d (use 420, 440 or 0)", c.Queue))
	}
	if c.OutDir == "" {
		errs = append(errs, errors.New("outdir is required"))
	}
	for _, id := range c.SeedRiotIDs {
		if _, _, err := ParseRiotID(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParseRiotID splits "GameName#TagLine".
func ParseRiotID(s string) (gameName, tagLine string, err error) {
	parts := strings.SplitN(s, "#", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("invalid Riot ID format '%s', expected 'GameName#TagLine'", s)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ReadIDFile reads one identifier per line. Blank lines and lines starting
// with '#' are skipped.
func ReadIDFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return ids, nil
}
