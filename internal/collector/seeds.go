package collector

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"match-crawler/internal/riot"
)

// ErrSeedExhaustion is returned when seeding leaves no usable player.
var ErrSeedExhaustion = errors.New("no usable seed players")

const (
	DefaultMaxSeedPlayers = 300
	DefaultMaxPages       = 10
)

// PlayerRef identifies a player before resolution. Exactly one of the
// identifiers is normally set; a PUUID needs no lookup at all.
type PlayerRef struct {
	SummonerID string
	PUUID      string
	GameName   string
	TagLine    string
}

func (r PlayerRef) key() string {
	switch {
	case r.PUUID != "":
		return "p:" + r.PUUID
	case r.SummonerID != "":
		return "s:" + r.SummonerID
	default:
		return "r:" + r.GameName + "#" + r.TagLine
	}
}

// SeedConfig selects where seed players come from.
type SeedConfig struct {
	Tiers          []string // queried in order, first non-empty tier wins
	Divisions      []string // queried in order for divided tiers
	MaxPages       int      // pages per division
	QueueType      string   // RANKED_SOLO_5x5 or RANKED_FLEX_SR
	MaxSeedPlayers int      // 0 keeps every seed
}

// DefaultSeedConfig queries the apex leagues from Master upwards, then Diamond.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Tiers:          []string{riot.TierMaster, riot.TierGrandmaster, riot.TierChallenger, riot.TierDiamond},
		Divisions:      append([]string(nil), riot.Divisions...),
		MaxPages:       DefaultMaxPages,
		QueueType:      "RANKED_SOLO_5x5",
		MaxSeedPlayers: DefaultMaxSeedPlayers,
	}
}

// SeedAcquirer collects the initial player set from ranked ladders.
type SeedAcquirer struct {
	api    RiotAPI
	caller *Caller
	cfg    SeedConfig
	rng    *rand.Rand
	logger *slog.Logger
}

// NewSeedAcquirer creates a SeedAcquirer. A nil rng is seeded from the clock.
func NewSeedAcquirer(api RiotAPI, caller *Caller, cfg SeedConfig, rng *rand.Rand, logger *slog.Logger) *SeedAcquirer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultSeedConfig()
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = defaults.Tiers
	}
	if len(cfg.Divisions) == 0 {
		cfg.Divisions = defaults.Divisions
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaults.MaxPages
	}
	if cfg.QueueType == "" {
		cfg.QueueType = defaults.QueueType
	}
	return &SeedAcquirer{api: api, caller: caller, cfg: cfg, rng: rng, logger: logger.With("component", "seeds")}
}

// Acquire returns the deduplicated seed players of the first tier that has any.
// A failing tier counts as empty; only fatal errors and cancellation abort.
func (a *SeedAcquirer) Acquire(ctx context.Context) ([]PlayerRef, error) {
	for _, tier := range a.cfg.Tiers {
		var refs []PlayerRef
		var err error
		if riot.IsApexTier(tier) {
			refs, err = a.apexTier(ctx, tier)
		} else {
			refs, err = a.dividedTier(ctx, tier)
		}
		if err != nil {
			if isTerminal(ctx, err) {
				return nil, err
			}
			a.logger.Warn("tier lookup failed, trying next tier", "tier", tier, "error", err)
			continue
		}

		refs = dedupeRefs(refs)
		if len(refs) == 0 {
			a.logger.Info("tier empty", "tier", tier)
			continue
		}

		sampled := a.sample(refs)
		a.logger.Info("seeded from tier", "tier", tier, "found", len(refs), "kept", len(sampled))
		return sampled, nil
	}
	return nil, ErrSeedExhaustion
}

func (a *SeedAcquirer) apexTier(ctx context.Context, tier string) ([]PlayerRef, error) {
	list, err := Call(ctx, a.caller, "apex-league", func(ctx context.Context) (*riot.LeagueList, error) {
		return a.api.ApexLeague(ctx, tier, a.cfg.QueueType)
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, nil
	}
	refs := make([]PlayerRef, 0, len(list.Entries))
	for _, e := range list.Entries {
		if e.PUUID == "" && e.SummonerID == "" {
			continue
		}
		refs = append(refs, PlayerRef{SummonerID: e.SummonerID, PUUID: e.PUUID})
	}
	return refs, nil
}

// dividedTier walks divisions in order and stops at the first one with entries.
// Every page of a division is fetched; empty or failed pages do not end paging.
func (a *SeedAcquirer) dividedTier(ctx context.Context, tier string) ([]PlayerRef, error) {
	for _, division := range a.cfg.Divisions {
		var refs []PlayerRef
		for page := 1; page <= a.cfg.MaxPages; page++ {
			entries, err := Call(ctx, a.caller, "league-entries", func(ctx context.Context) ([]riot.LeagueEntryResponse, error) {
				return a.api.LeagueEntries(ctx, tier, division, a.cfg.QueueType, page)
			})
			if err != nil {
				if isTerminal(ctx, err) {
					return nil, err
				}
				a.logger.Debug("league page failed", "tier", tier, "division", division, "page", page, "error", err)
				continue
			}
			for _, e := range entries {
				if e.PUUID == "" && e.SummonerID == "" {
					continue
				}
				refs = append(refs, PlayerRef{SummonerID: e.SummonerID, PUUID: e.PUUID})
			}
		}
		if len(refs) > 0 {
			a.logger.Info("division yielded seeds", "tier", tier, "division", division, "entries", len(refs))
			return refs, nil
		}
	}
	return nil, nil
}

// sample keeps a uniform random subset of MaxSeedPlayers refs.
func (a *SeedAcquirer) sample(refs []PlayerRef) []PlayerRef {
	limit := a.cfg.MaxSeedPlayers
	if limit <= 0 || len(refs) <= limit {
		return refs
	}
	a.rng.Shuffle(len(refs), func(i, j int) { refs[i], refs[j] = refs[j], refs[i] })
	return refs[:limit]
}

func dedupeRefs(refs []PlayerRef) []PlayerRef {
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0]
	for _, r := range refs {
		k := r.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
