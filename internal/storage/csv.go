package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	ParticipantsFile = "participants.csv"
	MatchesFile      = "matches.csv"
)

// AppendRecords writes records to a CSV file. With header set the file is
// created (or truncated) and the column header written first; otherwise the
// records are appended. An empty record set is a no-op and never touches the
// file. Missing parent directories are created.
func AppendRecords(path string, columns []string, records [][]string, header bool) error {
	if len(records) == 0 {
		return nil
	}
	return writeTable(path, columns, records, header)
}

// WriteTable replaces path with the header followed by records.
func WriteTable(path string, columns []string, records [][]string) error {
	return writeTable(path, columns, records, true)
}

func writeTable(path string, columns []string, records [][]string, header bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if header {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if header {
		if err := w.Write(columns); err != nil {
			f.Close()
			return fmt.Errorf("failed to write header to %s: %w", path, err)
		}
	}
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write records to %s: %w", path, err)
	}

	// Rows must survive a crash right after the flush returns
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	return f.Close()
}

// csvTable tracks whether a destination already holds its header.
type csvTable struct {
	path    string
	columns []string
	started bool
}

func (t *csvTable) append(records [][]string) error {
	if len(records) == 0 {
		return nil
	}
	if err := AppendRecords(t.path, t.columns, records, !t.started); err != nil {
		return err
	}
	t.started = true
	return nil
}

// ensureHeader writes a header-only file for a destination that never received rows.
func (t *csvTable) ensureHeader() error {
	if t.started {
		return nil
	}
	if err := writeTable(t.path, t.columns, nil, true); err != nil {
		return err
	}
	t.started = true
	return nil
}

// CSVSink writes participants.csv and matches.csv under one output directory.
type CSVSink struct {
	dir          string
	participants *csvTable
	matches      *csvTable
}

// NewCSVSink prepares the two CSV destinations in dir. With resume set, files
// that already hold data are appended to instead of being replaced.
func NewCSVSink(dir string, resume bool) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	s := &CSVSink{
		dir:          dir,
		participants: &csvTable{path: filepath.Join(dir, ParticipantsFile), columns: ParticipantColumns},
		matches:      &csvTable{path: filepath.Join(dir, MatchesFile), columns: MatchColumns},
	}

	if resume {
		for _, t := range []*csvTable{s.participants, s.matches} {
			info, err := os.Stat(t.path)
			if err == nil && info.Size() > 0 {
				t.started = true
			}
		}
	}
	return s, nil
}

// Flush appends the batch to both files. Participants go first so a match row
// never exists without its participant rows.
func (s *CSVSink) Flush(_ context.Context, batch Batch) error {
	participants := make([][]string, 0, len(batch.Participants))
	for _, r := range batch.Participants {
		participants = append(participants, r.Record())
	}
	if err := s.participants.append(participants); err != nil {
		return err
	}

	matches := make([][]string, 0, len(batch.Matches))
	for _, r := range batch.Matches {
		matches = append(matches, r.Record())
	}
	return s.matches.append(matches)
}

// Close leaves a header-only file behind for any destination that never received rows.
func (s *CSVSink) Close() error {
	return errors.Join(s.participants.ensureHeader(), s.matches.ensureHeader())
}

// Paths returns the participants and matches file paths.
func (s *CSVSink) Paths() (participants, matches string) {
	return s.participants.path, s.matches.path
}

// MatchIDs reads the match IDs already persisted in matches.csv.
// A missing file yields no IDs.
func (s *CSVSink) MatchIDs(_ context.Context) ([]string, error) {
	return readMatchIDs(s.matches.path)
}

// readMatchIDs returns the first column of a matches.csv file, header excluded.
func readMatchIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var ids []string
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == MatchColumns[0] {
				continue
			}
		}
		if len(rec) > 0 && rec[0] != "" {
			ids = append(ids, rec[0])
		}
	}
	return ids, nil
}

// ReadTable reads a CSV file with a header row and returns the header and the
// remaining records.
func ReadTable(path string) (header []string, records [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%s has no header", path)
	}
	return all[0], all[1:], nil
}
