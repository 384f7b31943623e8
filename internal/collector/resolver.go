package collector

import (
	"context"
	"errors"
	"log/slog"

	"match-crawler/internal/riot"
)

var errUnresolvable = errors.New("player reference carries no identifier")

// Resolver turns seed references into PUUIDs, one lookup per reference.
type Resolver struct {
	api    RiotAPI
	caller *Caller
	logger *slog.Logger
}

func NewResolver(api RiotAPI, caller *Caller, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{api: api, caller: caller, logger: logger.With("component", "resolver")}
}

// Resolve returns the deduplicated PUUIDs of refs in input order. A reference
// that fails to resolve is dropped; fatal errors and cancellation abort.
func (r *Resolver) Resolve(ctx context.Context, refs []PlayerRef) ([]string, error) {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	dropped := 0

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		puuid, err := r.resolveOne(ctx, ref)
		if err != nil {
			if isTerminal(ctx, err) {
				return nil, err
			}
			dropped++
			r.logger.Debug("dropping unresolvable player", "ref", ref.key(), "error", err)
			continue
		}
		if puuid == "" {
			dropped++
			continue
		}
		if _, ok := seen[puuid]; ok {
			continue
		}
		seen[puuid] = struct{}{}
		out = append(out, puuid)
	}

	if dropped > 0 {
		r.logger.Info("resolved seed players", "resolved", len(out), "dropped", dropped)
	}
	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, ref PlayerRef) (string, error) {
	switch {
	case ref.PUUID != "":
		return ref.PUUID, nil
	case ref.SummonerID != "":
		s, err := Call(ctx, r.caller, "summoner", func(ctx context.Context) (*riot.SummonerResponse, error) {
			return r.api.SummonerByID(ctx, ref.SummonerID)
		})
		if err != nil || s == nil {
			return "", err
		}
		return s.PUUID, nil
	case ref.GameName != "" && ref.TagLine != "":
		acc, err := Call(ctx, r.caller, "account", func(ctx context.Context) (*riot.AccountResponse, error) {
			return r.api.AccountByRiotID(ctx, ref.GameName, ref.TagLine)
		})
		if err != nil || acc == nil {
			return "", err
		}
		return acc.PUUID, nil
	default:
		return "", errUnresolvable
	}
}
