package matchups

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"match-crawler/internal/collector"
	"match-crawler/internal/storage"
)

const (
	// File is the default matchups table name inside the output directory.
	File = "matchups.csv"

	// Complete matches have five roles on each of the two teams.
	picksPerMatch = 10

	allyTeam  = 100
	enemyTeam = 200
)

// Columns is the matchups.csv header, in column order.
var Columns = []string{"role", "champ_ally", "champ_enemy", "games", "wins", "winrate"}

// Roles is the five-role vocabulary used in participants.csv.
var Roles = []string{"top", "jungle", "mid", "bot", "sup"}

// Pick is one champion played in one role of one match.
type Pick struct {
	MatchID  string
	TeamID   int
	Win      bool
	Role     string
	Champion string
}

// Matchup aggregates lane duels between an ally champion (team 100) and the
// enemy champion (team 200) in the same role.
type Matchup struct {
	Role  string
	Ally  string
	Enemy string
	Games int
	Wins  int
}

// WinRate is the ally's share of won duels.
func (m Matchup) WinRate() float64 {
	if m.Games == 0 {
		return 0
	}
	return float64(m.Wins) / float64(m.Games)
}

// Record renders the matchup in Columns order.
func (m Matchup) Record() []string {
	return []string{
		m.Role,
		m.Ally,
		m.Enemy,
		strconv.Itoa(m.Games),
		strconv.Itoa(m.Wins),
		strconv.FormatFloat(m.WinRate(), 'f', 4, 64),
	}
}

// ParseRole accepts a role from the five-role vocabulary or a Riot team
// position (MIDDLE, UTILITY, ...).
func ParseRole(s string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(s))
	for _, r := range Roles {
		if r == role {
			return r, nil
		}
	}
	if mapped, ok := collector.NormalizeRole(s); ok {
		return mapped, nil
	}
	return "", fmt.Errorf("unknown role %q (use %s)", s, strings.Join(Roles, ", "))
}

// CompleteMatches keeps the picks of matches that have exactly ten picks,
// preserving input order.
func CompleteMatches(picks []Pick) []Pick {
	counts := make(map[string]int)
	for _, p := range picks {
		counts[p.MatchID]++
	}
	out := make([]Pick, 0, len(picks))
	for _, p := range picks {
		if counts[p.MatchID] == picksPerMatch {
			out = append(out, p)
		}
	}
	return out
}

type duelKey struct {
	matchID string
	role    string
}

type matchupKey struct {
	role  string
	ally  string
	enemy string
}

// Build pairs, within every complete match, the team 100 pick of each role
// with the team 200 pick of the same role and counts games and ally wins.
// The first pick wins when a team lists a role twice. Results are ordered by
// role and ally champion, most played first.
func Build(picks []Pick) []Matchup {
	complete := CompleteMatches(picks)

	ally := make(map[duelKey]Pick)
	enemy := make(map[duelKey]Pick)
	var order []duelKey
	for _, p := range complete {
		k := duelKey{p.MatchID, p.Role}
		switch p.TeamID {
		case allyTeam:
			if _, ok := ally[k]; !ok {
				ally[k] = p
				order = append(order, k)
			}
		case enemyTeam:
			if _, ok := enemy[k]; !ok {
				enemy[k] = p
			}
		}
	}

	stats := make(map[matchupKey]*Matchup)
	for _, k := range order {
		a := ally[k]
		e, ok := enemy[k]
		if !ok {
			continue
		}
		mk := matchupKey{k.role, a.Champion, e.Champion}
		m, ok := stats[mk]
		if !ok {
			m = &Matchup{Role: k.role, Ally: a.Champion, Enemy: e.Champion}
			stats[mk] = m
		}
		m.Games++
		if a.Win {
			m.Wins++
		}
	}

	out := make([]Matchup, 0, len(stats))
	for _, m := range stats {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Role != b.Role {
			return a.Role < b.Role
		}
		if a.Ally != b.Ally {
			return a.Ally < b.Ally
		}
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		return a.Enemy < b.Enemy
	})
	return out
}

// Recommend returns the best ally picks against enemy in role, among
// matchups with at least minGames games, highest win rate first. topK <= 0
// returns every candidate.
func Recommend(all []Matchup, role, enemy string, topK, minGames int) []Matchup {
	var out []Matchup
	for _, m := range all {
		if m.Role == role && strings.EqualFold(m.Enemy, enemy) && m.Games >= minGames {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.WinRate() != b.WinRate() {
			return a.WinRate() > b.WinRate()
		}
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		return a.Ally < b.Ally
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// WriteCSV replaces path with the matchups table.
func WriteCSV(path string, ms []Matchup) error {
	records := make([][]string, 0, len(ms))
	for _, m := range ms {
		records = append(records, m.Record())
	}
	return storage.WriteTable(path, Columns, records)
}

// ReadCSV loads a matchups table written by WriteCSV. The win rate column is
// recomputed from games and wins.
func ReadCSV(path string) ([]Matchup, error) {
	header, records, err := storage.ReadTable(path)
	if err != nil {
		return nil, err
	}
	idx, err := columnIndex(path, header, "role", "champ_ally", "champ_enemy", "games", "wins")
	if err != nil {
		return nil, err
	}

	out := make([]Matchup, 0, len(records))
	for i, rec := range records {
		games, err := strconv.Atoi(rec[idx["games"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad games: %w", path, i+2, err)
		}
		wins, err := strconv.Atoi(rec[idx["wins"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad wins: %w", path, i+2, err)
		}
		out = append(out, Matchup{
			Role:  rec[idx["role"]],
			Ally:  rec[idx["champ_ally"]],
			Enemy: rec[idx["champ_enemy"]],
			Games: games,
			Wins:  wins,
		})
	}
	return out, nil
}

// columnIndex maps the required column names to their position in header.
func columnIndex(path string, header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s is missing columns: %s", path, strings.Join(missing, ", "))
	}
	return idx, nil
}
