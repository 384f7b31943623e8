package collector

import (
	"context"

	"match-crawler/internal/riot"
)

// RiotAPI is the remote capability the crawler consumes. *riot.Client
// implements it; each method performs exactly one request.
type RiotAPI interface {
	ApexLeague(ctx context.Context, tier, queue string) (*riot.LeagueList, error)
	LeagueEntries(ctx context.Context, tier, division, queue string, page int) ([]riot.LeagueEntryResponse, error)
	SummonerByID(ctx context.Context, summonerID string) (*riot.SummonerResponse, error)
	AccountByRiotID(ctx context.Context, gameName, tagLine string) (*riot.AccountResponse, error)
	MatchIDsByPUUID(ctx context.Context, puuid string, count, queue int) ([]string, error)
	Match(ctx context.Context, matchID string) (*riot.MatchResponse, error)
}

var _ RiotAPI = (*riot.Client)(nil)
