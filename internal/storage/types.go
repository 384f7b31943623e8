package storage

import (
	"context"
	"strconv"
	"strings"
)

// ParticipantColumns is the participants.csv header, in column order.
var ParticipantColumns = []string{
	"matchId", "teamId", "teamWin", "winnerTeamId", "role", "championName",
	"kills", "deaths", "assists", "kda_ratio", "summoner1Id", "summoner2Id", "puuid",
}

// MatchColumns is the matches.csv header, in column order.
var MatchColumns = []string{"matchId", "winnerTeamId"}

// ParticipantRow is one participant of an accepted match (10 rows per standard match).
type ParticipantRow struct {
	MatchID      string
	TeamID       int
	TeamWin      bool
	WinnerTeamID *int // nil for inconclusive matches
	Role         string
	ChampionName string
	Kills        int
	Deaths       int
	Assists      int
	KDARatio     float64
	Summoner1ID  *int
	Summoner2ID  *int
	PUUID        string
}

// Record renders the row in ParticipantColumns order.
func (r ParticipantRow) Record() []string {
	return []string{
		r.MatchID,
		strconv.Itoa(r.TeamID),
		strconv.FormatBool(r.TeamWin),
		formatOptional(r.WinnerTeamID),
		r.Role,
		r.ChampionName,
		strconv.Itoa(r.Kills),
		strconv.Itoa(r.Deaths),
		strconv.Itoa(r.Assists),
		formatRatio(r.KDARatio),
		formatOptional(r.Summoner1ID),
		formatOptional(r.Summoner2ID),
		r.PUUID,
	}
}

// MatchRow is the outcome of one accepted match.
type MatchRow struct {
	MatchID      string
	WinnerTeamID *int
}

// Record renders the row in MatchColumns order.
func (r MatchRow) Record() []string {
	return []string{r.MatchID, formatOptional(r.WinnerTeamID)}
}

// Batch is the unit handed to a Sink: rows buffered since the last flush,
// in discovery order.
type Batch struct {
	Participants []ParticipantRow
	Matches      []MatchRow
}

// Empty reports whether the batch carries no rows at all.
func (b Batch) Empty() bool {
	return len(b.Participants) == 0 && len(b.Matches) == 0
}

// Sink persists batches durably. Flush must preserve row order.
type Sink interface {
	Flush(ctx context.Context, batch Batch) error
	Close() error
}

func formatOptional(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// formatRatio always keeps a decimal point so the column reads as float (8 -> "8.0").
func formatRatio(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
