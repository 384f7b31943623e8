package matchups

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"match-crawler/internal/riot"
	"match-crawler/internal/storage"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var positions = []string{"TOP", "JUNGLE", "MIDDLE", "BOTTOM", "UTILITY"}

func rawMatch(id string, blueWins bool) riot.MatchResponse {
	m := riot.MatchResponse{}
	m.Metadata.MatchID = id
	for i, pos := range positions {
		m.Info.Participants = append(m.Info.Participants,
			riot.MatchParticipant{PUUID: fmt.Sprintf("%s-b%d", id, i), TeamID: 100, Win: blueWins, TeamPosition: pos, ChampionName: blueSide[i]})
	}
	for i, pos := range positions {
		m.Info.Participants = append(m.Info.Participants,
			riot.MatchParticipant{PUUID: fmt.Sprintf("%s-r%d", id, i), TeamID: 200, Win: !blueWins, TeamPosition: pos, ChampionName: redSide[i]})
	}
	return m
}

func TestReadParticipants(t *testing.T) {
	path := filepath.Join(t.TempDir(), storage.ParticipantsFile)
	var records [][]string
	for _, p := range fullMatch("EUW1_1", true, blueSide, redSide) {
		records = append(records, storage.ParticipantRow{
			MatchID:      p.MatchID,
			TeamID:       p.TeamID,
			TeamWin:      p.Win,
			Role:         p.Role,
			ChampionName: p.Champion,
			PUUID:        "x",
		}.Record())
	}
	require.NoError(t, storage.WriteTable(path, storage.ParticipantColumns, records))

	picks, err := ReadParticipants(path)
	require.NoError(t, err)

	assert.Equal(t, fullMatch("EUW1_1", true, blueSide, redSide), picks)
}

func TestReadParticipants_BadTeamWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), storage.ParticipantsFile)
	require.NoError(t, os.WriteFile(path, []byte("matchId,teamId,teamWin,role,championName\nEUW1_1,100,maybe,mid,Ahri\n"), 0644))

	_, err := ReadParticipants(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teamWin")
}

func TestReadArchive_HotWarmAndCold(t *testing.T) {
	dir := t.TempDir()
	rotator, err := storage.NewFileRotator(dir, slog.Default())
	require.NoError(t, err)
	rotator.SetLimits(1, time.Hour)

	require.NoError(t, rotator.WriteMatch(rawMatch("EUW1_1", true)))
	require.NoError(t, rotator.WriteMatch(rawMatch("EUW1_2", false)))
	require.NoError(t, rotator.Close())
	n, err := rotator.CompressWarm()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// a later run left a hot file with a repeat, a bad line and one partial match
	partial := rawMatch("EUW1_4", true)
	partial.Info.Participants[3].TeamPosition = ""
	hot := filepath.Join(dir, "hot", "raw_matches_9999-12-31_00-00-00_001.jsonl")
	var lines []byte
	for _, m := range []riot.MatchResponse{rawMatch("EUW1_1", true), rawMatch("EUW1_3", true), partial} {
		data, err := json.Marshal(m)
		require.NoError(t, err)
		lines = append(lines, data...)
		lines = append(lines, '\n')
		if m.Metadata.MatchID == "EUW1_1" {
			lines = append(lines, []byte("{not json\n")...)
		}
	}
	require.NoError(t, os.WriteFile(hot, lines, 0644))

	files, err := ArchiveFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)

	picks, err := ReadArchive(dir, slog.Default())
	require.NoError(t, err)
	assert.Len(t, picks, 39, "three full matches plus nine mapped picks of the partial one")

	ms := Build(picks)
	mid := find(t, ms, "mid", "Ahri", "Zed")
	assert.Equal(t, 3, mid.Games)
	assert.Equal(t, 2, mid.Wins)
}

func TestReadArchive_Empty(t *testing.T) {
	_, err := ReadArchive(t.TempDir(), nil)
	assert.Error(t, err)
}
