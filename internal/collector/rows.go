package collector

import (
	"math"
	"strings"

	"match-crawler/internal/riot"
	"match-crawler/internal/storage"
)

var roleMap = map[string]string{
	"TOP":     "top",
	"JUNGLE":  "jungle",
	"MIDDLE":  "mid",
	"BOTTOM":  "bot",
	"UTILITY": "sup",
}

// NormalizeRole maps a Riot team position onto the five-role vocabulary.
// Anything else (empty, "Invalid", ARAM positions) reports false.
func NormalizeRole(position string) (string, bool) {
	role, ok := roleMap[strings.ToUpper(strings.TrimSpace(position))]
	return role, ok
}

// KDARatio is (kills+assists)/max(deaths,1) rounded to 3 decimals.
func KDARatio(kills, deaths, assists int) float64 {
	d := deaths
	if d < 1 {
		d = 1
	}
	return math.Round(float64(kills+assists)/float64(d)*1000) / 1000
}

// WinnerTeamID returns the single team flagged as winner, or nil when no team
// or more than one team is.
func WinnerTeamID(teams []riot.MatchTeam) *int {
	var winner *int
	for _, t := range teams {
		if !t.Win {
			continue
		}
		if winner != nil {
			return nil
		}
		id := t.TeamID
		winner = &id
	}
	return winner
}

// ParticipantRows derives the rows of one match. Participants without a
// standard role are dropped; an empty result means the match is not a
// standard five-role game.
func ParticipantRows(matchID string, match *riot.MatchResponse) []storage.ParticipantRow {
	if match == nil {
		return nil
	}
	winner := WinnerTeamID(match.Info.Teams)

	rows := make([]storage.ParticipantRow, 0, len(match.Info.Participants))
	for _, p := range match.Info.Participants {
		role, ok := NormalizeRole(p.TeamPosition)
		if !ok {
			continue
		}
		kills, deaths, assists := nonNegative(p.Kills), nonNegative(p.Deaths), nonNegative(p.Assists)
		rows = append(rows, storage.ParticipantRow{
			MatchID:      matchID,
			TeamID:       p.TeamID,
			TeamWin:      p.Win,
			WinnerTeamID: copyInt(winner),
			Role:         role,
			ChampionName: p.ChampionName,
			Kills:        kills,
			Deaths:       deaths,
			Assists:      assists,
			KDARatio:     KDARatio(kills, deaths, assists),
			Summoner1ID:  copyInt(p.Summoner1ID),
			Summoner2ID:  copyInt(p.Summoner2ID),
			PUUID:        p.PUUID,
		})
	}
	return rows
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
