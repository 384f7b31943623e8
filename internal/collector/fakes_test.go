package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"match-crawler/internal/riot"
	"match-crawler/internal/storage"
)

// fakeClock advances instantly and records every sleep.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// fakeAPI serves canned responses and counts calls per method and argument.
type fakeAPI struct {
	apex       map[string][]riot.LeagueItem
	apexErr    map[string]error
	entries    map[string][]riot.LeagueEntryResponse // tier/division/page
	summoners  map[string]string                     // summonerID -> puuid
	accounts   map[string]string                     // name#tag -> puuid
	matchLists map[string][]string
	listErr    map[string]error
	matches    map[string]*riot.MatchResponse
	matchErr   map[string]error
	onMatch    func(matchID string)

	calls     map[string]int
	listCalls map[string]int
	fetched   []string
	queues    []int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		apex:       map[string][]riot.LeagueItem{},
		apexErr:    map[string]error{},
		entries:    map[string][]riot.LeagueEntryResponse{},
		summoners:  map[string]string{},
		accounts:   map[string]string{},
		matchLists: map[string][]string{},
		listErr:    map[string]error{},
		matches:    map[string]*riot.MatchResponse{},
		matchErr:   map[string]error{},
		calls:      map[string]int{},
		listCalls:  map[string]int{},
	}
}

func entriesKey(tier, division string, page int) string {
	return fmt.Sprintf("%s/%s/%d", tier, division, page)
}

func (f *fakeAPI) ApexLeague(_ context.Context, tier, _ string) (*riot.LeagueList, error) {
	f.calls["apex:"+tier]++
	if err := f.apexErr[tier]; err != nil {
		return nil, err
	}
	return &riot.LeagueList{Tier: tier, Entries: f.apex[tier]}, nil
}

func (f *fakeAPI) LeagueEntries(_ context.Context, tier, division, _ string, page int) ([]riot.LeagueEntryResponse, error) {
	f.calls["entries:"+tier+"/"+division]++
	return f.entries[entriesKey(tier, division, page)], nil
}

func (f *fakeAPI) SummonerByID(_ context.Context, id string) (*riot.SummonerResponse, error) {
	f.calls["summoner"]++
	puuid, ok := f.summoners[id]
	if !ok {
		return nil, &riot.APIError{StatusCode: http.StatusNotFound, Endpoint: "summoner"}
	}
	return &riot.SummonerResponse{ID: id, PUUID: puuid}, nil
}

func (f *fakeAPI) AccountByRiotID(_ context.Context, name, tag string) (*riot.AccountResponse, error) {
	f.calls["account"]++
	puuid, ok := f.accounts[name+"#"+tag]
	if !ok {
		return nil, &riot.APIError{StatusCode: http.StatusNotFound, Endpoint: "account"}
	}
	return &riot.AccountResponse{PUUID: puuid, GameName: name, TagLine: tag}, nil
}

func (f *fakeAPI) MatchIDsByPUUID(_ context.Context, puuid string, _ int, queue int) ([]string, error) {
	f.calls["match-ids"]++
	f.listCalls[puuid]++
	f.queues = append(f.queues, queue)
	if err := f.listErr[puuid]; err != nil {
		return nil, err
	}
	return f.matchLists[puuid], nil
}

func (f *fakeAPI) Match(_ context.Context, matchID string) (*riot.MatchResponse, error) {
	f.calls["match"]++
	f.fetched = append(f.fetched, matchID)
	if f.onMatch != nil {
		f.onMatch(matchID)
	}
	if err := f.matchErr[matchID]; err != nil {
		return nil, err
	}
	m, ok := f.matches[matchID]
	if !ok {
		return nil, &riot.APIError{StatusCode: http.StatusNotFound, Endpoint: "match"}
	}
	return m, nil
}

var positions = []string{"TOP", "JUNGLE", "MIDDLE", "BOTTOM", "UTILITY"}

// standardMatch builds a 5v5 match; the first five players are on team 100.
// winner 0 flags no team as winner.
func standardMatch(id string, puuids []string, winner int) *riot.MatchResponse {
	m := &riot.MatchResponse{}
	m.Metadata.MatchID = id
	m.Info.Teams = []riot.MatchTeam{{TeamID: 100, Win: winner == 100}, {TeamID: 200, Win: winner == 200}}
	for i, p := range puuids {
		team := 100
		if i >= 5 {
			team = 200
		}
		spell1, spell2 := 4, 14
		m.Info.Participants = append(m.Info.Participants, riot.MatchParticipant{
			ParticipantID: i + 1,
			PUUID:         p,
			TeamID:        team,
			ChampionName:  fmt.Sprintf("Champ%d", i),
			TeamPosition:  positions[i%5],
			Win:           team == winner,
			Kills:         i,
			Deaths:        1,
			Assists:       2,
			Summoner1ID:   &spell1,
			Summoner2ID:   &spell2,
		})
	}
	return m
}

// playersFor returns seed followed by nine players unique to the match.
func playersFor(seed, matchID string) []string {
	out := []string{seed}
	for i := 1; i < 10; i++ {
		out = append(out, fmt.Sprintf("%s-p%d", matchID, i))
	}
	return out
}

// memorySink keeps every flushed batch.
type memorySink struct {
	batches []storage.Batch
	err     error
	closed  bool
}

func (s *memorySink) Flush(_ context.Context, b storage.Batch) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, b)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func (s *memorySink) participants() []storage.ParticipantRow {
	var out []storage.ParticipantRow
	for _, b := range s.batches {
		out = append(out, b.Participants...)
	}
	return out
}

func (s *memorySink) matches() []storage.MatchRow {
	var out []storage.MatchRow
	for _, b := range s.batches {
		out = append(out, b.Matches...)
	}
	return out
}

type memoryArchive struct{ written []interface{} }

func (a *memoryArchive) WriteMatch(m interface{}) error {
	a.written = append(a.written, m)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCaller(clock Clock) *Caller {
	return NewCaller(CallerConfig{Interval: DefaultCallInterval, Backoff: DefaultBackoff}, clock, discardLogger())
}
