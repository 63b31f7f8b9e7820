package reports

import (
	"time"
)

// ID tipe untuk Report
type ReportID string

// Status enum
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// Summary is the analyzer's data_summary object, kept opaque. The analyzer
// owns its schema; the server only relays it.
type Summary map[string]any

// Aggregate Root: Report — one upload-and-analyze attempt
type Report struct {
	ID          ReportID  `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Status      Status    `json:"status"`
	ExitCode    int       `json:"exit_code"`
	DurationMS  int64     `json:"duration_ms"`
	HistoryFile string    `json:"history_file,omitempty"`
}

// HistoryEntry is one archived analysis snapshot under history/
type HistoryEntry struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}
