package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveUploadOverwrites(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first := []byte("first version")
	path, err := store.SaveUpload("report.xlsx", first)
	if err != nil {
		t.Fatalf("SaveUpload failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, first) {
		t.Errorf("Saved content mismatch: %q", got)
	}

	second := []byte("second, longer version of the file")
	if _, err := store.SaveUpload("report.xlsx", second); err != nil {
		t.Fatalf("second SaveUpload failed: %v", err)
	}
	got, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, second) {
		t.Errorf("Overwrite did not replace content: %q", got)
	}
}

func TestReadResultsMissing(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.ReadResults(); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestArchiveResult(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root)
	if err != nil {
		t.Fatal(err)
	}

	payload := []byte(`{"data_summary":{"rows":5}}`)
	if err := os.WriteFile(store.ResultsPath(), payload, 0o644); err != nil {
		t.Fatal(err)
	}

	dst, err := store.ArchiveResult("report_20240101-120000.json")
	if err != nil {
		t.Fatalf("ArchiveResult failed: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Archived snapshot differs from mailbox content")
	}
	if filepath.Dir(dst) != filepath.Join(store.Root(), HistoryDirName) {
		t.Errorf("Snapshot not under history/: %s", dst)
	}
}

func TestArchiveResultNoMailbox(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.ArchiveResult("x.json"); err == nil {
		t.Error("Expected error when mailbox file is absent")
	}
}

func TestListHistoryEmptyWhenMissing(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	entries, err := store.ListHistory()
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(entries))
	}
}

func TestListHistoryOrderAndShape(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root)
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(root, HistoryDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	files := []struct {
		name  string
		mtime time.Time
	}{
		{"oldest_20240101-080000.json", base},
		{"middle_20240101-090000.json", base.Add(10 * time.Minute)},
		{"newest_20240101-100000.json", base.Add(20 * time.Minute)},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, f.mtime, f.mtime); err != nil {
			t.Fatal(err)
		}
	}
	// Non-json and directories are ignored
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	entries, err := store.ListHistory()
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	wantOrder := []string{
		"newest_20240101-100000.json",
		"middle_20240101-090000.json",
		"oldest_20240101-080000.json",
	}
	for i, want := range wantOrder {
		if entries[i].Name != want {
			t.Errorf("entries[%d].Name = %s, want %s", i, entries[i].Name, want)
		}
	}

	first := entries[0]
	if first.URL != "/history/newest_20240101-100000.json" {
		t.Errorf("Unexpected URL %s", first.URL)
	}
	wantTS := files[2].mtime.Format("2006-01-02 15:04:05")
	if first.Timestamp != wantTS {
		t.Errorf("Timestamp = %s, want %s", first.Timestamp, wantTS)
	}
}
