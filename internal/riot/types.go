package riot

// AccountResponse represents the response from /riot/account/v1/accounts/by-riot-id
type AccountResponse struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// SummonerResponse represents the response from /lol/summoner/v4/summoners/{id}
type SummonerResponse struct {
	ID            string `json:"id"`
	PUUID         string `json:"puuid"`
	SummonerLevel int64  `json:"summonerLevel"`
}

// LeagueList is returned by the apex tier endpoints (master, grandmaster, challenger).
type LeagueList struct {
	LeagueID string       `json:"leagueId"`
	Tier     string       `json:"tier"`
	Queue    string       `json:"queue"`
	Entries  []LeagueItem `json:"entries"`
}

// LeagueItem is one ladder position. Older payloads carry only summonerId,
// newer ones only puuid.
type LeagueItem struct {
	SummonerID   string `json:"summonerId,omitempty"`
	PUUID        string `json:"puuid,omitempty"`
	LeaguePoints int    `json:"leaguePoints"`
	Rank         string `json:"rank"`
}

// LeagueEntryResponse represents a ranked league entry from /lol/league/v4/entries/{queue}/{tier}/{division}
type LeagueEntryResponse struct {
	LeagueID     string `json:"leagueId"`
	SummonerID   string `json:"summonerId,omitempty"`
	PUUID        string `json:"puuid,omitempty"`
	QueueType    string `json:"queueType"` // RANKED_SOLO_5x5, RANKED_FLEX_SR
	Tier         string `json:"tier"`
	Rank         string `json:"rank"` // I, II, III, IV
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// MatchResponse represents the response from /lol/match/v5/matches/{matchId}
type MatchResponse struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"` // PUUIDs
}

type MatchInfo struct {
	GameCreation int64              `json:"gameCreation"`
	GameDuration int                `json:"gameDuration"`
	GameVersion  string             `json:"gameVersion"`
	QueueID      int                `json:"queueId"`
	Participants []MatchParticipant `json:"participants"`
	Teams        []MatchTeam        `json:"teams"`
}

type MatchTeam struct {
	TeamID int  `json:"teamId"`
	Win    bool `json:"win"`
}

type MatchParticipant struct {
	ParticipantID int    `json:"participantId"`
	PUUID         string `json:"puuid"`
	TeamID        int    `json:"teamId"`
	ChampionID    int    `json:"championId"`
	ChampionName  string `json:"championName"`
	TeamPosition  string `json:"teamPosition"` // TOP, JUNGLE, MIDDLE, BOTTOM, UTILITY
	Win           bool   `json:"win"`
	Kills         int    `json:"kills"`
	Deaths        int    `json:"deaths"`
	Assists       int    `json:"assists"`

	// Summoner spell slots; absent on some game modes.
	Summoner1ID *int `json:"summoner1Id,omitempty"`
	Summoner2ID *int `json:"summoner2Id,omitempty"`
}

// Ladder tiers queried while seeding.
const (
	TierChallenger  = "CHALLENGER"
	TierGrandmaster = "GRANDMASTER"
	TierMaster      = "MASTER"
	TierDiamond     = "DIAMOND"
)

// Tier order for comparison (higher index = higher rank)
var TierOrder = map[string]int{
	"IRON":          0,
	"BRONZE":        1,
	"SILVER":        2,
	"GOLD":          3,
	"PLATINUM":      4,
	"EMERALD":       5,
	TierDiamond:     6,
	TierMaster:      7,
	TierGrandmaster: 8,
	TierChallenger:  9,
}

// Divisions from highest to lowest.
var Divisions = []string{"I", "II", "III", "IV"}

// IsApexTier reports whether tier is served by a single undivided league list.
func IsApexTier(tier string) bool {
	return tier == TierMaster || tier == TierGrandmaster || tier == TierChallenger
}

// Queue IDs accepted by the match list endpoint.
const (
	QueueAll        = 0
	QueueRankedSolo = 420
	QueueRankedFlex = 440
)

// LeagueQueue returns the ladder queue name for a match queue ID.
// Unfiltered crawls seed from the solo ladder.
func LeagueQueue(queueID int) (string, bool) {
	switch queueID {
	case QueueAll, QueueRankedSolo:
		return "RANKED_SOLO_5x5", true
	case QueueRankedFlex:
		return "RANKED_FLEX_SR", true
	}
	return "", false
}
