package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"match-crawler/internal/collector"
	"match-crawler/internal/config"
	"match-crawler/internal/discord"
	"match-crawler/internal/riot"
	"match-crawler/internal/storage"

	"github.com/spf13/cobra"
)

var compressArchive bool

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Collect ranked matches into participants.csv and matches.csv",
	Long: `Seeds players from the ranked ladder (or from --seed-* flags), then walks
their match histories breadth-first until --target matches are collected or no
unexplored players remain. Output is flushed incrementally to <outdir>.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx := setupSignalHandler(logger)
		return runCrawl(ctx, cfg, logger)
	},
}

func init() {
	f := crawlCmd.Flags()
	f.IntVar(&flagCfg.Target, "target", flagCfg.Target, "number of matches to collect")
	f.IntVar(&flagCfg.Queue, "queue", flagCfg.Queue, "420=ranked solo, 440=ranked flex, 0=all queues")
	f.IntVar(&flagCfg.MatchlistCount, "matchlist-count", flagCfg.MatchlistCount, "match IDs requested per player (max 100)")
	f.IntVar(&flagCfg.MaxSeedPlayers, "max-seed-players", flagCfg.MaxSeedPlayers, "cap on ladder seeds (min 50)")
	f.StringVar(&flagCfg.OutDir, "outdir", flagCfg.OutDir, "output directory")
	f.BoolVar(&flagCfg.Resume, "resume", false, "append to existing output and skip matches already stored")
	f.IntVar(&flagCfg.FlushThreshold, "flush-threshold", flagCfg.FlushThreshold, "participant rows buffered before writing")

	f.DurationVar(&flagCfg.CallInterval, "interval", flagCfg.CallInterval, "pause after every successful API call")
	f.DurationVar(&flagCfg.Backoff, "backoff", flagCfg.Backoff, "pause before retrying a rate-limited call")
	f.IntVar(&flagCfg.QuotaRequests, "quota", flagCfg.QuotaRequests, "requests allowed per quota window (0 disables)")
	f.DurationVar(&flagCfg.QuotaWindow, "quota-window", flagCfg.QuotaWindow, "quota window length")

	f.StringSliceVar(&flagCfg.SeedTiers, "seed-tiers", nil, "ladder tiers queried in order (default MASTER,GRANDMASTER,CHALLENGER,DIAMOND)")
	f.StringSliceVar(&flagCfg.SeedPUUIDs, "seed-puuids", nil, "comma-separated PUUID seeds")
	f.StringSliceVar(&flagCfg.SeedSummonerIDs, "seed-ids", nil, "comma-separated summoner ID seeds")
	f.StringSliceVar(&flagCfg.SeedRiotIDs, "seed-riot-ids", nil, "comma-separated Riot ID seeds (GameName#TagLine)")
	f.StringVar(&flagCfg.SeedPUUIDsFile, "seed-puuids-file", "", "file with one PUUID per line")
	f.StringVar(&flagCfg.SeedIDsFile, "seed-ids-file", "", "file with one summoner ID per line")

	f.StringVar(&flagCfg.SQLitePath, "sqlite", "", "also write to this SQLite database")
	f.StringVar(&flagCfg.DatabaseURL, "database-url", "", "also write to this Postgres database (default: DATABASE_URL)")
	f.StringVar(&flagCfg.TursoURL, "turso-url", "", "also write to this Turso database (default: TURSO_DATABASE_URL)")
	f.StringVar(&flagCfg.TursoAuthToken, "turso-auth-token", "", "Turso auth token (default: TURSO_AUTH_TOKEN)")
	f.StringVar(&flagCfg.ArchiveDir, "archive-dir", "", "archive raw match JSON under this directory (default: BLOB_STORAGE_PATH)")
	f.IntVar(&flagCfg.ArchiveMaxMatches, "archive-max-matches", flagCfg.ArchiveMaxMatches, "matches per archive file before rotating")
	f.DurationVar(&flagCfg.ArchiveMaxAge, "archive-max-age", flagCfg.ArchiveMaxAge, "age of an archive file before rotating")
	f.BoolVar(&compressArchive, "compress-archive", false, "gzip finished archive files into cold/ after the crawl")
	f.BoolVar(&flagCfg.ValidateKey, "validate-key", false, "check the API key before seeding")
	f.StringVar(&flagCfg.DiscordWebhookURL, "discord-webhook", "", "Discord webhook for run notifications (default: DISCORD_WEBHOOK_URL)")
}

func runCrawl(ctx context.Context, cfg config.Config, logger *slog.Logger) (err error) {
	log := logger.With("component", "crawl")
	log.Info("starting crawl",
		"key", riot.MaskAPIKey(cfg.APIKey),
		"platform", cfg.Platform,
		"region", cfg.Region,
		"target", cfg.Target,
		"queue", cfg.Queue,
		"outdir", cfg.OutDir)

	var notifier *discord.WebhookClient
	if cfg.DiscordWebhookURL != "" {
		notifier = discord.NewWebhookClient(cfg.DiscordWebhookURL)
	}
	started := time.Now()

	if cfg.ValidateKey {
		valid, err := riot.NewKeyValidator(cfg.Platform).ValidateKey(ctx, cfg.APIKey)
		if err != nil {
			return fmt.Errorf("key validation failed: %w", err)
		}
		if !valid {
			notifyKeyExpired(ctx, notifier, 0, 0, cfg.APIKey, log)
			return fmt.Errorf("%w: API key %s was rejected, refresh RIOT_API_KEY", collector.ErrFatal, riot.MaskAPIKey(cfg.APIKey))
		}
		log.Info("API key validated")
	}

	client, err := riot.NewClient(cfg.APIKey, cfg.Platform, cfg.Region, riot.WithLogger(logger))
	if err != nil {
		return err
	}

	sinks, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sinks.Close(); cerr != nil {
			log.Error("failed to close output", "error", cerr)
			err = errors.Join(err, cerr)
		}
	}()

	var known []string
	if cfg.Resume {
		known, err = sinks.all.MatchIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to read stored match IDs: %w", err)
		}
		log.Info("resuming", "known_matches", len(known))
	}

	caller := collector.NewCaller(collector.CallerConfig{
		Interval:      cfg.CallInterval,
		Backoff:       cfg.Backoff,
		QuotaRequests: cfg.QuotaRequests,
		QuotaWindow:   cfg.QuotaWindow,
	}, collector.RealClock(), logger)

	seeds := collector.DefaultSeedConfig()
	seeds.MaxSeedPlayers = cfg.MaxSeedPlayers
	if len(cfg.SeedTiers) > 0 {
		seeds.Tiers = cfg.SeedTiers
	}
	if q, ok := riot.LeagueQueue(cfg.Queue); ok {
		seeds.QueueType = q
	}

	spider := collector.NewSpider(client, caller, sinks.all, collector.Options{
		Target:           cfg.Target,
		MatchesPerPlayer: cfg.MatchlistCount,
		Queue:            cfg.Queue,
		FlushThreshold:   cfg.FlushThreshold,
		SeedPUUIDs:       cfg.SeedPUUIDs,
		SeedRefs:         seedRefs(cfg),
		KnownMatchIDs:    known,
		Seeds:            seeds,
	}, logger)
	spider.OnTransition(func(from, to collector.State) {
		log.Debug("state transition", "from", from.String(), "to", to.String())
	})

	var rotator *storage.FileRotator
	if cfg.ArchiveDir != "" {
		rotator, err = storage.NewFileRotator(cfg.ArchiveDir, logger)
		if err != nil {
			return err
		}
		rotator.SetLimits(cfg.ArchiveMaxMatches, cfg.ArchiveMaxAge)
		spider.SetArchive(rotator)
	}

	res, runErr := spider.Run(ctx)

	if rotator != nil {
		inFile, name := rotator.Stats()
		log.Debug("closing archive", "file", name, "matches", inFile)
		if err := rotator.Close(); err != nil {
			log.Error("error closing archive", "error", err)
		}
		if compressArchive {
			n, err := rotator.CompressWarm()
			if err != nil {
				log.Error("failed to compress archive", "error", err)
			} else {
				log.Info("compressed archive files", "files", n)
			}
		}
	}

	if runErr != nil {
		switch {
		case riot.IsAPIKeyError(runErr):
			log.Error("API key expired or revoked: refresh RIOT_API_KEY and rerun with --resume",
				"accepted", res.Accepted)
			notifyKeyExpired(ctx, notifier, res.Accepted, time.Since(started), cfg.APIKey, log)
		case errors.Is(runErr, context.Canceled):
			log.Warn("interrupted, buffered rows were flushed", "accepted", res.Accepted)
		}
		return runErr
	}

	participants, matches := sinks.csv.Paths()
	log.Info("output written", "participants", participants, "matches", matches)

	if notifier != nil {
		summary := discord.CrawlSummary{
			Accepted:        res.Accepted,
			Target:          res.Target,
			ParticipantRows: res.ParticipantRows,
			TargetReached:   res.Outcome == collector.OutcomeTargetReached,
			Runtime:         time.Since(started),
			OutDir:          cfg.OutDir,
		}
		if err := notifier.SendCrawlComplete(ctx, summary); err != nil {
			log.Warn("failed to send Discord notification", "error", err)
		}
	}
	return nil
}

// seedRefs converts operator-supplied summoner IDs and Riot IDs into references.
func seedRefs(cfg config.Config) []collector.PlayerRef {
	var refs []collector.PlayerRef
	for _, id := range cfg.SeedSummonerIDs {
		refs = append(refs, collector.PlayerRef{SummonerID: id})
	}
	for _, rid := range cfg.SeedRiotIDs {
		name, tag, err := config.ParseRiotID(rid)
		if err != nil {
			continue
		}
		refs = append(refs, collector.PlayerRef{GameName: name, TagLine: tag})
	}
	return refs
}

func notifyKeyExpired(ctx context.Context, notifier *discord.WebhookClient, accepted int, runtime time.Duration, key string, log *slog.Logger) {
	if notifier == nil {
		return
	}
	if err := notifier.SendKeyExpired(context.WithoutCancel(ctx), accepted, runtime, key); err != nil {
		log.Warn("failed to send Discord notification", "error", err)
	}
}
