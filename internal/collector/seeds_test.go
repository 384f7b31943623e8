package collector

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"testing"

	"match-crawler/internal/riot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAcquirer(api *fakeAPI, cfg SeedConfig) *SeedAcquirer {
	return NewSeedAcquirer(api, testCaller(newFakeClock()), cfg, rand.New(rand.NewSource(1)), discardLogger())
}

func TestAcquire_FirstTierHitStopsProbing(t *testing.T) {
	api := newFakeAPI()
	api.apex[riot.TierMaster] = []riot.LeagueItem{{PUUID: "a"}, {PUUID: "b"}, {PUUID: "a"}}

	refs, err := newTestAcquirer(api, DefaultSeedConfig()).Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []PlayerRef{{PUUID: "a"}, {PUUID: "b"}}, refs)

	assert.Equal(t, 1, api.calls["apex:"+riot.TierMaster])
	assert.Zero(t, api.calls["apex:"+riot.TierGrandmaster])
	assert.Zero(t, api.calls["apex:"+riot.TierChallenger])
	assert.Zero(t, api.calls["entries:"+riot.TierDiamond+"/I"])
}

func TestAcquire_FailedTierCountsAsEmpty(t *testing.T) {
	api := newFakeAPI()
	api.apexErr[riot.TierGrandmaster] = &riot.APIError{StatusCode: http.StatusInternalServerError}
	api.apex[riot.TierChallenger] = []riot.LeagueItem{{SummonerID: "s1"}, {SummonerID: "s2"}}

	refs, err := newTestAcquirer(api, DefaultSeedConfig()).Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []PlayerRef{{SummonerID: "s1"}, {SummonerID: "s2"}}, refs)
	assert.Equal(t, 1, api.calls["apex:"+riot.TierGrandmaster])
}

func TestAcquire_DividedTierFirstDivisionWins(t *testing.T) {
	api := newFakeAPI()
	api.entries[entriesKey(riot.TierDiamond, "II", 3)] = []riot.LeagueEntryResponse{{PUUID: "d1"}, {PUUID: "d2"}}
	api.entries[entriesKey(riot.TierDiamond, "II", 7)] = []riot.LeagueEntryResponse{{PUUID: "d3"}}

	refs, err := newTestAcquirer(api, DefaultSeedConfig()).Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []PlayerRef{{PUUID: "d1"}, {PUUID: "d2"}, {PUUID: "d3"}}, refs)

	// every page of a division is fetched, empty ones included
	assert.Equal(t, DefaultMaxPages, api.calls["entries:DIAMOND/I"])
	assert.Equal(t, DefaultMaxPages, api.calls["entries:DIAMOND/II"])
	assert.Zero(t, api.calls["entries:DIAMOND/III"])
}

func TestAcquire_AllTiersEmpty(t *testing.T) {
	api := newFakeAPI()
	_, err := newTestAcquirer(api, DefaultSeedConfig()).Acquire(context.Background())
	assert.ErrorIs(t, err, ErrSeedExhaustion)
	assert.Equal(t, DefaultMaxPages, api.calls["entries:DIAMOND/IV"])
}

func TestAcquire_FatalErrorAborts(t *testing.T) {
	api := newFakeAPI()
	api.apexErr[riot.TierMaster] = &riot.APIError{StatusCode: http.StatusUnauthorized}

	_, err := newTestAcquirer(api, DefaultSeedConfig()).Acquire(context.Background())
	assert.ErrorIs(t, err, ErrFatal)
	assert.Zero(t, api.calls["apex:"+riot.TierGrandmaster])
}

func TestAcquire_SamplesDownToCap(t *testing.T) {
	api := newFakeAPI()
	var items []riot.LeagueItem
	for i := 0; i < 20; i++ {
		items = append(items, riot.LeagueItem{PUUID: fmt.Sprintf("p%02d", i)})
	}
	api.apex[riot.TierMaster] = items

	cfg := DefaultSeedConfig()
	cfg.MaxSeedPlayers = 5
	refs, err := newTestAcquirer(api, cfg).Acquire(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 5)

	seen := map[string]bool{}
	for _, r := range refs {
		assert.False(t, seen[r.PUUID], "sample must not repeat players")
		seen[r.PUUID] = true
	}
}

func TestResolve_MixedReferences(t *testing.T) {
	api := newFakeAPI()
	api.summoners["s1"] = "puuid-s1"
	api.summoners["s2"] = "puuid-shared"
	api.accounts["Faker#KR1"] = "puuid-faker"

	r := NewResolver(api, testCaller(newFakeClock()), discardLogger())
	got, err := r.Resolve(context.Background(), []PlayerRef{
		{PUUID: "direct"},
		{SummonerID: "s1"},
		{SummonerID: "stale"},
		{GameName: "Faker", TagLine: "KR1"},
		{SummonerID: "s2"},
		{PUUID: "puuid-shared"},
		{},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"direct", "puuid-s1", "puuid-faker", "puuid-shared"}, got)
	assert.Equal(t, 3, api.calls["summoner"])
	assert.Equal(t, 1, api.calls["account"])
}

type unauthorizedAPI struct{ *fakeAPI }

func (unauthorizedAPI) SummonerByID(context.Context, string) (*riot.SummonerResponse, error) {
	return nil, &riot.APIError{StatusCode: http.StatusForbidden}
}

func TestResolve_FatalPropagates(t *testing.T) {
	r := NewResolver(unauthorizedAPI{newFakeAPI()}, testCaller(newFakeClock()), discardLogger())
	_, err := r.Resolve(context.Background(), []PlayerRef{{SummonerID: "s1"}})
	assert.True(t, errors.Is(err, ErrFatal))
}
