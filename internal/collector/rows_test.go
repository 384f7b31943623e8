package collector

import (
	"testing"

	"match-crawler/internal/riot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKDARatio(t *testing.T) {
	tests := []struct {
		k, d, a int
		want    float64
	}{
		{5, 0, 3, 8.0},
		{2, 4, 6, 2.0},
		{1, 3, 1, 0.667},
		{0, 0, 0, 0},
		{10, 1, 5, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KDARatio(tt.k, tt.d, tt.a), "k=%d d=%d a=%d", tt.k, tt.d, tt.a)
	}
}

func TestNormalizeRole(t *testing.T) {
	tests := map[string]string{
		"TOP":     "top",
		"JUNGLE":  "jungle",
		"MIDDLE":  "mid",
		"middle":  "mid",
		"BOTTOM":  "bot",
		"UTILITY": "sup",
		"Utility": "sup",
	}
	for in, want := range tests {
		got, ok := NormalizeRole(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "Invalid", "NONE", "MID", "SUPPORT"} {
		_, ok := NormalizeRole(in)
		assert.False(t, ok, in)
	}
}

func TestWinnerTeamID(t *testing.T) {
	w := WinnerTeamID([]riot.MatchTeam{{TeamID: 100}, {TeamID: 200, Win: true}})
	require.NotNil(t, w)
	assert.Equal(t, 200, *w)

	assert.Nil(t, WinnerTeamID([]riot.MatchTeam{{TeamID: 100}, {TeamID: 200}}), "remake has no winner")
	assert.Nil(t, WinnerTeamID([]riot.MatchTeam{{TeamID: 100, Win: true}, {TeamID: 200, Win: true}}))
	assert.Nil(t, WinnerTeamID(nil))
}

func TestParticipantRows_FiltersRolesAndClamps(t *testing.T) {
	m := standardMatch("EUW1_1", playersFor("seed", "EUW1_1"), 100)
	m.Info.Participants[0].TeamPosition = ""
	m.Info.Participants[1].Kills = -3
	m.Info.Participants[1].Deaths = -1
	m.Info.Participants[2].Summoner1ID = nil

	rows := ParticipantRows("EUW1_1", m)
	require.Len(t, rows, 9)

	jungle := rows[0]
	assert.Equal(t, "jungle", jungle.Role)
	assert.Equal(t, 0, jungle.Kills)
	assert.Equal(t, 0, jungle.Deaths)
	assert.Equal(t, 2.0, jungle.KDARatio)
	assert.True(t, jungle.TeamWin)
	require.NotNil(t, jungle.WinnerTeamID)
	assert.Equal(t, 100, *jungle.WinnerTeamID)

	assert.Nil(t, rows[1].Summoner1ID)
	require.NotNil(t, rows[1].Summoner2ID)

	last := rows[8]
	assert.Equal(t, 200, last.TeamID)
	assert.False(t, last.TeamWin)
	assert.Equal(t, "sup", last.Role)
	assert.Equal(t, "EUW1_1", last.MatchID)
}

func TestParticipantRows_NonStandardMode(t *testing.T) {
	m := standardMatch("EUW1_2", playersFor("seed", "EUW1_2"), 200)
	for i := range m.Info.Participants {
		m.Info.Participants[i].TeamPosition = ""
	}
	assert.Empty(t, ParticipantRows("EUW1_2", m))
	assert.Nil(t, ParticipantRows("x", nil))
}
