package riot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
)

const (
	// Platform hosts (euw1) serve league/summoner/status, regional hosts (europe) serve match-v5 and account-v1.
	hostURLFormat = "https://%s.api.riotgames.com"

	defaultRequestTimeout = 30 * time.Second

	// Max matchlist page size accepted by match-v5
	MaxMatchListCount = 100

	maxErrorBody = 256
)

// Client talks to the Riot API. It performs exactly one HTTP request per
// method call: pacing and retries belong to the caller.
type Client struct {
	http        *resty.Client
	platformURL string
	regionalURL string
	logger      *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithPlatformURL overrides the platform host (useful for testing)
func WithPlatformURL(url string) ClientOption {
	return func(c *Client) {
		c.platformURL = strings.TrimRight(url, "/")
	}
}

// WithRegionalURL overrides the regional host (useful for testing)
func WithRegionalURL(url string) ClientOption {
	return func(c *Client) {
		c.regionalURL = strings.TrimRight(url, "/")
	}
}

// WithRequestTimeout sets the per-request timeout
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// WithLogger sets the client logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Riot API client for a platform shard (euw1, na1, kr...)
// and a regional routing value (europe, americas, asia, sea).
func NewClient(apiKey, platform, region string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("riot api key is empty")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	region = strings.ToLower(strings.TrimSpace(region))
	if platform == "" || region == "" {
		return nil, fmt.Errorf("platform and region are required (got %q, %q)", platform, region)
	}

	httpClient := resty.New().
		SetTimeout(defaultRequestTimeout).
		SetHeader("X-Riot-Token", apiKey).
		SetHeader("Accept", "application/json")

	c := &Client{
		http:        httpClient,
		platformURL: fmt.Sprintf(hostURLFormat, platform),
		regionalURL: fmt.Sprintf(hostURLFormat, region),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger.Debug("riot client ready",
		"key", MaskAPIKey(apiKey), "platform", c.platformURL, "regional", c.regionalURL)
	return c, nil
}

// get performs a single GET and decodes a 200 body into result
func (c *Client) get(ctx context.Context, endpoint string, path map[string]string, query map[string]string, result interface{}) error {
	req := c.http.R().SetContext(ctx)
	if len(path) > 0 {
		req.SetPathParams(path)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(endpoint)
	if err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}

	if resp.StatusCode() != http.StatusOK {
		body := resp.String()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &APIError{StatusCode: resp.StatusCode(), Endpoint: endpoint, Body: body}
	}

	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// ApexLeague fetches the single league list of an apex tier
func (c *Client) ApexLeague(ctx context.Context, tier, queue string) (*LeagueList, error) {
	var kind string
	switch tier {
	case TierMaster:
		kind = "masterleagues"
	case TierGrandmaster:
		kind = "grandmasterleagues"
	case TierChallenger:
		kind = "challengerleagues"
	default:
		return nil, fmt.Errorf("tier %q is not an apex tier", tier)
	}

	var list LeagueList
	err := c.get(ctx, c.platformURL+"/lol/league/v4/"+kind+"/by-queue/{queue}",
		map[string]string{"queue": queue}, nil, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// LeagueEntries fetches one page of a divided tier
func (c *Client) LeagueEntries(ctx context.Context, tier, division, queue string, page int) ([]LeagueEntryResponse, error) {
	var entries []LeagueEntryResponse
	err := c.get(ctx, c.platformURL+"/lol/league/v4/entries/{queue}/{tier}/{division}",
		map[string]string{"queue": queue, "tier": tier, "division": division},
		map[string]string{"page": strconv.Itoa(page)}, &entries)
	return entries, err
}

// SummonerByID fetches a summoner by encrypted summoner ID
func (c *Client) SummonerByID(ctx context.Context, summonerID string) (*SummonerResponse, error) {
	var summoner SummonerResponse
	err := c.get(ctx, c.platformURL+"/lol/summoner/v4/summoners/{id}",
		map[string]string{"id": summonerID}, nil, &summoner)
	if err != nil {
		return nil, err
	}
	return &summoner, nil
}

// AccountByRiotID fetches account info by Riot ID (gameName#tagLine)
func (c *Client) AccountByRiotID(ctx context.Context, gameName, tagLine string) (*AccountResponse, error) {
	var account AccountResponse
	err := c.get(ctx, c.regionalURL+"/riot/account/v1/accounts/by-riot-id/{gameName}/{tagLine}",
		map[string]string{"gameName": gameName, "tagLine": tagLine}, nil, &account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// MatchIDsByPUUID fetches up to count match IDs for a player, newest first.
// A queue of 0 applies no queue filter.
func (c *Client) MatchIDsByPUUID(ctx context.Context, puuid string, count, queue int) ([]string, error) {
	if count <= 0 || count > MaxMatchListCount {
		count = MaxMatchListCount
	}
	query := map[string]string{"count": strconv.Itoa(count)}
	if queue != QueueAll {
		query["queue"] = strconv.Itoa(queue)
		query["type"] = "ranked"
	}

	var matchIDs []string
	err := c.get(ctx, c.regionalURL+"/lol/match/v5/matches/by-puuid/{puuid}/ids",
		map[string]string{"puuid": puuid}, query, &matchIDs)
	return matchIDs, err
}

// Match fetches match details
func (c *Client) Match(ctx context.Context, matchID string) (*MatchResponse, error) {
	var match MatchResponse
	err := c.get(ctx, c.regionalURL+"/lol/match/v5/matches/{matchId}",
		map[string]string{"matchId": matchID}, nil, &match)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// MaskAPIKey masks an API key for display (e.g., "RGAPI-xxxx-xxxx" -> "RGAPI-...xxxx")
func MaskAPIKey(key string) string {
	if len(key) <= 10 {
		return "****"
	}
	return key[:6] + "..." + key[len(key)-4:]
}
