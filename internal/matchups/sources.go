package matchups

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"match-crawler/internal/collector"
	"match-crawler/internal/riot"
	"match-crawler/internal/storage"

	json "github.com/goccy/go-json"
)

// maxLineSize bounds one archived match; match-v5 payloads stay well below it.
const maxLineSize = 4 * 1024 * 1024

// ReadParticipants loads the picks stored in a participants.csv file.
func ReadParticipants(path string) ([]Pick, error) {
	header, records, err := storage.ReadTable(path)
	if err != nil {
		return nil, err
	}
	idx, err := columnIndex(path, header, "matchId", "teamId", "teamWin", "role", "championName")
	if err != nil {
		return nil, err
	}

	picks := make([]Pick, 0, len(records))
	for i, rec := range records {
		teamID, err := strconv.Atoi(rec[idx["teamId"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad teamId: %w", path, i+2, err)
		}
		win, err := strconv.ParseBool(rec[idx["teamWin"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad teamWin: %w", path, i+2, err)
		}
		picks = append(picks, Pick{
			MatchID:  rec[idx["matchId"]],
			TeamID:   teamID,
			Win:      win,
			Role:     rec[idx["role"]],
			Champion: rec[idx["championName"]],
		})
	}
	return picks, nil
}

// ArchiveFiles lists the raw match files under an archive directory: open
// and rotated JSONL files plus gzip-compressed cold files, oldest first by name.
func ArchiveFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{
		filepath.Join(dir, "cold", "*.jsonl.gz"),
		filepath.Join(dir, "warm", "*.jsonl"),
		filepath.Join(dir, "hot", "*.jsonl"),
	} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.SliceStable(files, func(i, j int) bool {
		return filepath.Base(files[i]) < filepath.Base(files[j])
	})
	return files, nil
}

// ReadArchive loads picks from every raw match archived under dir. Lines that
// fail to decode are logged and skipped; a match archived twice counts once.
func ReadArchive(dir string, logger *slog.Logger) ([]Pick, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "matchups")

	files, err := ArchiveFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no archive files under %s", dir)
	}

	seen := make(map[string]bool)
	var picks []Pick
	for _, path := range files {
		n, err := readArchiveFile(path, seen, &picks, log)
		if err != nil {
			return nil, err
		}
		log.Debug("read archive file", "file", filepath.Base(path), "matches", n)
	}
	return picks, nil
}

func readArchiveFile(path string, seen map[string]bool, picks *[]Pick, log *slog.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("failed to open gzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	matches, lineNum := 0, 0
	for scanner.Scan() {
		lineNum++
		var m riot.MatchResponse
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			log.Warn("skipping unreadable archive line", "file", filepath.Base(path), "line", lineNum, "error", err)
			continue
		}
		id := m.Metadata.MatchID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		matches++

		for _, p := range m.Info.Participants {
			role, ok := collector.NormalizeRole(p.TeamPosition)
			if !ok {
				continue
			}
			*picks = append(*picks, Pick{
				MatchID:  id,
				TeamID:   p.TeamID,
				Win:      p.Win,
				Role:     role,
				Champion: p.ChampionName,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return matches, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return matches, nil
}
