package storage

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// Rotation triggers
	MaxMatchesPerFile = 1000
	MaxFileAge        = 1 * time.Hour
)

// FileRotator archives raw match payloads as JSONL, one match per line.
// Files are written under hot/, moved to warm/ when rotated, and can be
// gzip-compressed into cold/.
type FileRotator struct {
	mu sync.Mutex

	hotDir  string // Active writes
	warmDir string // Closed files awaiting processing
	coldDir string // Compressed archives

	maxMatches int
	maxAge     time.Duration
	now        func() time.Time
	logger     *slog.Logger

	currentFile   *os.File
	currentWriter *bufio.Writer
	currentPath   string
	matchCount    int
	fileOpenedAt  time.Time
	sequence      int
}

// NewFileRotator creates a rotator with the given base directory
func NewFileRotator(baseDir string, logger *slog.Logger) (*FileRotator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &FileRotator{
		hotDir:     filepath.Join(baseDir, "hot"),
		warmDir:    filepath.Join(baseDir, "warm"),
		coldDir:    filepath.Join(baseDir, "cold"),
		maxMatches: MaxMatchesPerFile,
		maxAge:     MaxFileAge,
		now:        time.Now,
		logger:     logger.With("component", "rotator"),
	}

	for _, dir := range []string{r.hotDir, r.warmDir, r.coldDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return r, nil
}

// SetLimits overrides the rotation triggers
func (r *FileRotator) SetLimits(maxMatches int, maxAge time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if maxMatches > 0 {
		r.maxMatches = maxMatches
	}
	if maxAge > 0 {
		r.maxAge = maxAge
	}
}

// WriteMatch appends one raw match as a JSON line, rotating first when the
// current file is full or too old.
func (r *FileRotator) WriteMatch(match interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}

	if r.shouldRotate() {
		if err := r.rotate(); err != nil {
			return err
		}
	}

	if _, err := r.currentWriter.Write(data); err != nil {
		return fmt.Errorf("failed to write match: %w", err)
	}
	if err := r.currentWriter.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := r.currentWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	r.matchCount++
	return nil
}

func (r *FileRotator) shouldRotate() bool {
	if r.currentFile == nil {
		return true
	}
	if r.matchCount >= r.maxMatches {
		return true
	}
	return r.now().Sub(r.fileOpenedAt) >= r.maxAge
}

// rotate closes the current file into warm/ and opens a new one in hot/
func (r *FileRotator) rotate() error {
	if err := r.retireCurrent(); err != nil {
		return err
	}

	r.sequence++
	filename := fmt.Sprintf("raw_matches_%s_%03d.jsonl", r.now().Format("2006-01-02_15-04-05"), r.sequence)
	r.currentPath = filepath.Join(r.hotDir, filename)

	file, err := os.Create(r.currentPath)
	if err != nil {
		return fmt.Errorf("failed to create new file: %w", err)
	}

	r.currentFile = file
	r.currentWriter = bufio.NewWriterSize(file, 64*1024)
	r.matchCount = 0
	r.fileOpenedAt = r.now()

	r.logger.Debug("opened archive file", "file", filename)
	return nil
}

// retireCurrent closes the open file; files with data move to warm/, empty ones are removed
func (r *FileRotator) retireCurrent() error {
	if r.currentFile == nil {
		return nil
	}

	if err := r.currentWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush before rotation: %w", err)
	}
	if err := r.currentFile.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	r.currentFile = nil

	if r.matchCount == 0 {
		os.Remove(r.currentPath)
		return nil
	}

	warmPath := filepath.Join(r.warmDir, filepath.Base(r.currentPath))
	if err := os.Rename(r.currentPath, warmPath); err != nil {
		return fmt.Errorf("failed to move to warm storage: %w", err)
	}
	r.logger.Info("moved archive to warm storage", "file", filepath.Base(warmPath), "matches", r.matchCount)
	return nil
}

// Close flushes and retires the current file
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retireCurrent()
}

// Stats returns current rotator statistics
func (r *FileRotator) Stats() (matchesInCurrentFile int, currentFileName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matchCount, filepath.Base(r.currentPath)
}

// CompressWarm gzips every warm file into cold storage
func (r *FileRotator) CompressWarm() (int, error) {
	warm, err := filepath.Glob(filepath.Join(r.warmDir, "*.jsonl"))
	if err != nil {
		return 0, err
	}
	for i, path := range warm {
		if err := CompressToCold(path, r.coldDir); err != nil {
			return i, err
		}
	}
	return len(warm), nil
}

// CompressToCold compresses a warm file and moves it to cold storage
func CompressToCold(warmPath, coldDir string) error {
	src, err := os.Open(warmPath)
	if err != nil {
		return err
	}
	defer src.Close()

	coldPath := filepath.Join(coldDir, filepath.Base(warmPath)+".gz")
	dst, err := os.Create(coldPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	gzWriter := gzip.NewWriter(dst)
	if _, err := io.Copy(gzWriter, src); err != nil {
		return err
	}
	if err := gzWriter.Close(); err != nil {
		return err
	}

	return os.Remove(warmPath)
}
