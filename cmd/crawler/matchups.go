package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"match-crawler/internal/matchups"
	"match-crawler/internal/storage"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	matchupsFromArchive bool
	matchupsInput       string
	matchupsOutput      string

	recommendRole     string
	recommendEnemy    string
	recommendTopK     int
	recommendMinGames int
	recommendPath     string
)

var matchupsCmd = &cobra.Command{
	Use:   "matchups",
	Short: "Aggregate lane matchups into matchups.csv",
	Long: `Pairs the team 100 and team 200 champions of every role in every complete
match (ten role-mapped participants) and counts games and team 100 wins per
(role, ally, enemy). Reads <outdir>/participants.csv, or the raw match archive
with --from-archive.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ms, err := buildMatchups(cfg.OutDir, cfg.ArchiveDir, logger)
		if err != nil {
			return err
		}

		out := matchupsOutput
		if out == "" {
			out = filepath.Join(cfg.OutDir, matchups.File)
		}
		if err := matchups.WriteCSV(out, ms); err != nil {
			return err
		}
		logger.Info("matchups written", "file", out, "rows", len(ms))

		head := ms
		if len(head) > 10 {
			head = head[:10]
		}
		renderMatchups(cmd.OutOrStdout(), head)
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Suggest the best picks against an enemy champion",
	Long: `Reads matchups.csv and lists the ally champions with the highest win rate
against --enemy in --role, ignoring matchups with fewer than --min-games games.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := matchups.ParseRole(recommendRole)
		if err != nil {
			return err
		}

		path := recommendPath
		if path == "" {
			path = filepath.Join(cfg.OutDir, matchups.File)
		}
		ms, err := matchups.ReadCSV(path)
		if err != nil {
			return fmt.Errorf("failed to read matchups (run `crawler matchups` first): %w", err)
		}

		picks := matchups.Recommend(ms, role, recommendEnemy, recommendTopK, recommendMinGames)
		if len(picks) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no recommendation")
			return nil
		}
		renderMatchups(cmd.OutOrStdout(), picks)
		return nil
	},
}

func init() {
	f := matchupsCmd.Flags()
	f.StringVar(&flagCfg.OutDir, "outdir", flagCfg.OutDir, "directory holding participants.csv")
	f.StringVar(&flagCfg.ArchiveDir, "archive-dir", "", "raw match archive read with --from-archive (default: BLOB_STORAGE_PATH)")
	f.BoolVar(&matchupsFromArchive, "from-archive", false, "aggregate the raw match archive instead of participants.csv")
	f.StringVar(&matchupsInput, "input", "", "participants CSV to read (default: <outdir>/participants.csv)")
	f.StringVarP(&matchupsOutput, "output", "o", "", "matchups CSV to write (default: <outdir>/matchups.csv)")

	r := recommendCmd.Flags()
	r.StringVar(&flagCfg.OutDir, "outdir", flagCfg.OutDir, "directory holding matchups.csv")
	r.StringVar(&recommendRole, "role", "mid", "lane: top, jungle, mid, bot, sup")
	r.StringVar(&recommendEnemy, "enemy", "Zed", "enemy champion name")
	r.IntVar(&recommendTopK, "topk", 5, "number of picks to list")
	r.IntVar(&recommendMinGames, "min-games", 20, "minimum games for a matchup to count")
	r.StringVar(&recommendPath, "matchups", "", "matchups CSV to read (default: <outdir>/matchups.csv)")
}

// buildMatchups loads picks from participants.csv or the archive and
// aggregates them.
func buildMatchups(outDir, archiveDir string, logger *slog.Logger) ([]matchups.Matchup, error) {
	var (
		picks []matchups.Pick
		err   error
	)
	if matchupsFromArchive {
		if archiveDir == "" {
			return nil, errors.New("--from-archive needs --archive-dir or BLOB_STORAGE_PATH")
		}
		picks, err = matchups.ReadArchive(archiveDir, logger)
	} else {
		in := matchupsInput
		if in == "" {
			in = filepath.Join(outDir, storage.ParticipantsFile)
		}
		picks, err = matchups.ReadParticipants(in)
	}
	if err != nil {
		return nil, err
	}

	complete := matchups.CompleteMatches(picks)
	logger.Info("loaded picks", "rows", len(picks), "complete_rows", len(complete))
	return matchups.Build(complete), nil
}

func renderMatchups(w io.Writer, ms []matchups.Matchup) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Role", "Ally", "Enemy", "Games", "Wins", "Win Rate"})
	for _, m := range ms {
		t.AppendRow(table.Row{m.Role, m.Ally, m.Enemy, m.Games, m.Wins, fmt.Sprintf("%.1f%%", m.WinRate()*100)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
