package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func sampleBatch(matchID string, winner *int) Batch {
	return Batch{
		Participants: []ParticipantRow{
			{MatchID: matchID, TeamID: 100, TeamWin: true, WinnerTeamID: winner, Role: "mid", ChampionName: "Ahri",
				Kills: 5, Deaths: 0, Assists: 3, KDARatio: 8, Summoner1ID: intPtr(4), Summoner2ID: intPtr(14), PUUID: "p1"},
			{MatchID: matchID, TeamID: 200, TeamWin: false, WinnerTeamID: winner, Role: "sup", ChampionName: "Lulu",
				Kills: 2, Deaths: 4, Assists: 6, KDARatio: 2, PUUID: "p2"},
		},
		Matches: []MatchRow{{MatchID: matchID, WinnerTeamID: winner}},
	}
}

func TestAppendRecords_HeaderThenAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.csv")
	cols := []string{"a", "b"}

	require.NoError(t, AppendRecords(path, cols, [][]string{{"1", "2"}}, true))
	require.NoError(t, AppendRecords(path, cols, [][]string{{"3", "4"}}, false))

	assert.Equal(t, []string{"a,b", "1,2", "3,4"}, readLines(t, path))
}

func TestAppendRecords_EmptyIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, AppendRecords(path, []string{"a"}, nil, true))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty write must not create the file")
}

func TestAppendRecords_HeaderTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0644))

	require.NoError(t, AppendRecords(path, []string{"a"}, [][]string{{"x"}}, true))
	assert.Equal(t, []string{"a", "x"}, readLines(t, path))
}

func TestCSVSink_FlushWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewCSVSink(dir, false)
	require.NoError(t, err)

	winner := intPtr(100)
	require.NoError(t, sink.Flush(context.Background(), sampleBatch("EUW1_1", winner)))
	require.NoError(t, sink.Flush(context.Background(), sampleBatch("EUW1_2", nil)))
	require.NoError(t, sink.Close())

	participants, matches := sink.Paths()
	plines := readLines(t, participants)
	require.Len(t, plines, 5)
	assert.Equal(t, strings.Join(ParticipantColumns, ","), plines[0])
	assert.Equal(t, "EUW1_1,100,true,100,mid,Ahri,5,0,3,8.0,4,14,p1", plines[1])
	assert.Equal(t, "EUW1_1,200,false,100,sup,Lulu,2,4,6,2.0,,,p2", plines[2])
	assert.Equal(t, "EUW1_2,100,true,,mid,Ahri,5,0,3,8.0,4,14,p1", plines[3])

	assert.Equal(t, []string{"matchId,winnerTeamId", "EUW1_1,100", "EUW1_2,"}, readLines(t, matches))
}

func TestCSVSink_EmptyBatchDoesNotCreateFiles(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewCSVSink(dir, false)
	require.NoError(t, err)

	require.NoError(t, sink.Flush(context.Background(), Batch{}))

	_, err = os.Stat(filepath.Join(dir, ParticipantsFile))
	assert.True(t, os.IsNotExist(err))
}

func TestCSVSink_CloseLeavesHeaderOnlyFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data_db")
	sink, err := NewCSVSink(dir, false)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	participants, matches := sink.Paths()
	assert.Equal(t, []string{strings.Join(ParticipantColumns, ",")}, readLines(t, participants))
	assert.Equal(t, []string{"matchId,winnerTeamId"}, readLines(t, matches))
}

func TestCSVSink_ResumeAppendsAndExposesIDs(t *testing.T) {
	dir := t.TempDir()
	first, err := NewCSVSink(dir, false)
	require.NoError(t, err)
	require.NoError(t, first.Flush(context.Background(), sampleBatch("EUW1_1", intPtr(200))))
	require.NoError(t, first.Close())

	resumed, err := NewCSVSink(dir, true)
	require.NoError(t, err)
	ids, err := resumed.MatchIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"EUW1_1"}, ids)

	require.NoError(t, resumed.Flush(context.Background(), sampleBatch("EUW1_2", intPtr(100))))
	require.NoError(t, resumed.Close())

	_, matches := resumed.Paths()
	assert.Equal(t, []string{"matchId,winnerTeamId", "EUW1_1,200", "EUW1_2,100"}, readLines(t, matches))
}

func TestCSVSink_NoResumeReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	first, err := NewCSVSink(dir, false)
	require.NoError(t, err)
	require.NoError(t, first.Flush(context.Background(), sampleBatch("EUW1_1", nil)))

	second, err := NewCSVSink(dir, false)
	require.NoError(t, err)
	require.NoError(t, second.Flush(context.Background(), sampleBatch("EUW1_9", nil)))

	ids, err := second.MatchIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"EUW1_9"}, ids)
}

func TestReadMatchIDs_MissingFile(t *testing.T) {
	ids, err := readMatchIDs(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "8.0", formatRatio(8))
	assert.Equal(t, "2.333", formatRatio(2.333))
	assert.Equal(t, "0.0", formatRatio(0))
}
