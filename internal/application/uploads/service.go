package uploads

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wuwuwuxn/sheetserver/internal/application"
	domain "github.com/wuwuwuxn/sheetserver/internal/domain/reports"
	"github.com/wuwuwuxn/sheetserver/internal/logger"
)

// DefaultFilename is used when the client did not declare a filename.
const DefaultFilename = "uploaded_file.xlsx"

// Service implements the save-analyze-archive workflow.
// Uploads are serialized: the analyzer's mailbox file is shared state, so
// only one save→run→read→archive sequence may be in flight at a time.
type Service struct {
	Store     domain.Store
	Runner    domain.Runner
	Audit     domain.AuditRepository // optional, may be nil
	Artifacts domain.ArtifactStore   // optional, may be nil
	Clock     application.Clock

	mu sync.Mutex
}

// Command untuk satu upload
type UploadCommand struct {
	Filename string
	Data     []byte
}

// Outcome is the workflow result. OK distinguishes a completed analysis
// from a non-zero analyzer exit; request-level problems are returned as
// errors instead.
type Outcome struct {
	OK               bool
	Filename         string
	Size             int
	Summary          domain.Summary
	HistoryFile      string
	HistoryTimestamp string
	Stdout           string
	Stderr           string
	// Diagnostics records secondary-step failures (result read, archive,
	// mirror, audit) that degrade the response without failing it.
	Diagnostics []string
}

// Upload runs the full workflow for one sanitized filename + payload.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*Outcome, error) {
	if cmd.Filename == "" {
		cmd.Filename = DefaultFilename
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Clock.Now()
	id := uuid.New().String()

	savedPath, err := s.Store.SaveUpload(cmd.Filename, cmd.Data)
	if err != nil {
		return nil, err
	}

	res, err := s.Runner.Run(ctx, domain.RunRequest{InputPath: savedPath})
	if err != nil {
		// spawn/timeout; the uploaded file stays on disk, no rollback
		s.audit(ctx, &domain.Report{
			ID: domain.ReportID(id), Filename: cmd.Filename,
			Size: int64(len(cmd.Data)), UploadedAt: now,
			Status: domain.StatusError,
		})
		return nil, err
	}

	if res.ExitCode != 0 {
		s.audit(ctx, &domain.Report{
			ID: domain.ReportID(id), Filename: cmd.Filename,
			Size: int64(len(cmd.Data)), UploadedAt: now,
			Status: domain.StatusFailed, ExitCode: res.ExitCode,
			DurationMS: res.DurationMS,
		})
		return &Outcome{
			OK:       false,
			Filename: cmd.Filename,
			Size:     len(cmd.Data),
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}, nil
	}

	out := &Outcome{
		OK:       true,
		Filename: cmd.Filename,
		Size:     len(cmd.Data),
		Summary:  domain.Summary{},
	}

	// Result summary is best-effort: a missing or malformed mailbox file
	// degrades the response, it does not fail the upload.
	if raw, err := s.Store.ReadResults(); err != nil {
		out.diag("read %s: %v", "analysis_results.json", err)
	} else {
		var doc struct {
			DataSummary domain.Summary `json:"data_summary"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			out.diag("parse analysis results: %v", err)
		} else if doc.DataSummary != nil {
			out.Summary = doc.DataSummary
		}
	}

	base := strings.TrimSuffix(cmd.Filename, filepath.Ext(cmd.Filename))
	ts := now.Format("20060102-150405")
	historyName := fmt.Sprintf("%s_%s.json", base, ts)
	out.HistoryFile = "/history/" + historyName
	out.HistoryTimestamp = ts

	localPath, err := s.Store.ArchiveResult(historyName)
	if err != nil {
		out.diag("archive history entry: %v", err)
	} else if s.Artifacts != nil {
		key := "history/" + historyName
		if url, err := s.Artifacts.Upload(ctx, localPath, key); err != nil {
			out.diag("mirror history entry: %v", err)
		} else {
			logger.Info(ctx, "history entry mirrored", "key", key, "url", url)
		}
	}

	s.audit(ctx, &domain.Report{
		ID: domain.ReportID(id), Filename: cmd.Filename,
		Size: int64(len(cmd.Data)), UploadedAt: now,
		Status: domain.StatusSuccess, DurationMS: res.DurationMS,
		HistoryFile: out.HistoryFile,
	})

	return out, nil
}

// History returns archived snapshots, newest first.
func (s *Service) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	return s.Store.ListHistory()
}

// ReadHistoryEntry returns the raw bytes of one archived snapshot.
func (s *Service) ReadHistoryEntry(ctx context.Context, name string) ([]byte, error) {
	return s.Store.ReadHistory(name)
}

// AuditLatest returns recent upload reports when a database is configured.
func (s *Service) AuditLatest(ctx context.Context, limit int) ([]*domain.Report, error) {
	if s.Audit == nil {
		return nil, domain.ErrAuditNotConfigured
	}
	return s.Audit.Latest(ctx, limit)
}

func (s *Service) audit(ctx context.Context, rep *domain.Report) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Save(ctx, rep); err != nil {
		logger.Warn(ctx, "audit save failed", "error", err, "report_id", string(rep.ID))
	}
}

func (o *Outcome) diag(format string, args ...any) {
	o.Diagnostics = append(o.Diagnostics, fmt.Sprintf(format, args...))
}
