package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	domain "github.com/wuwuwuxn/sheetserver/internal/domain/reports"
)

const (
	// ResultsFileName is the mailbox file the analyzer writes its output to.
	ResultsFileName = "analysis_results.json"
	// HistoryDirName holds archived analysis snapshots.
	HistoryDirName = "history"
)

// FSStore keeps uploads, the analyzer mailbox file and history snapshots
// under one injected root directory.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &FSStore{root: abs}, nil
}

func (s *FSStore) Root() string { return s.root }

// SaveUpload writes the payload to <root>/<filename>, create-or-truncate.
// The caller is responsible for sanitizing filename first.
func (s *FSStore) SaveUpload(filename string, data []byte) (string, error) {
	path := filepath.Join(s.root, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// ResultsPath is where the analyzer leaves its output.
func (s *FSStore) ResultsPath() string {
	return filepath.Join(s.root, ResultsFileName)
}

// ReadResults reads the mailbox file left by the analyzer.
func (s *FSStore) ReadResults() ([]byte, error) {
	return os.ReadFile(s.ResultsPath())
}

// ArchiveResult copies the current mailbox file byte-for-byte into
// history/<name>, creating the history directory if needed. Returns the
// local path of the archived snapshot.
func (s *FSStore) ArchiveResult(name string) (string, error) {
	dir := filepath.Join(s.root, HistoryDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create history dir: %w", err)
	}
	data, err := os.ReadFile(s.ResultsPath())
	if err != nil {
		return "", fmt.Errorf("read results: %w", err)
	}
	dst := filepath.Join(dir, name)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write history entry: %w", err)
	}
	return dst, nil
}

// ReadHistory returns the raw bytes of one archived snapshot.
func (s *FSStore) ReadHistory(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, HistoryDirName, name))
}

// ListHistory enumerates *.json files directly under history/, newest
// modification first. A missing directory means an empty history.
func (s *FSStore) ListHistory() ([]domain.HistoryEntry, error) {
	dir := filepath.Join(s.root, HistoryDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.HistoryEntry{}, nil
		}
		return nil, err
	}

	type item struct {
		name  string
		mtime time.Time
	}
	items := make([]item, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		items = append(items, item{name: e.Name(), mtime: info.ModTime()})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].mtime.After(items[j].mtime)
	})

	out := make([]domain.HistoryEntry, 0, len(items))
	for _, it := range items {
		out = append(out, domain.HistoryEntry{
			Name:      it.name,
			URL:       "/" + HistoryDirName + "/" + it.name,
			Timestamp: it.mtime.Format("2006-01-02 15:04:05"),
		})
	}
	return out, nil
}
