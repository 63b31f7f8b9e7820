package reports

import "context"

// Runner port (interface untuk eksekusi analyzer)
type Runner interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// Store port (interface untuk filesystem persistence)
type Store interface {
	SaveUpload(filename string, data []byte) (string, error)
	ReadResults() ([]byte, error)
	ArchiveResult(name string) (string, error)
	ReadHistory(name string) ([]byte, error)
	ListHistory() ([]HistoryEntry, error)
}

// AuditRepository port (interface untuk persistence audit trail)
type AuditRepository interface {
	Save(ctx context.Context, r *Report) error
	Latest(ctx context.Context, limit int) ([]*Report, error)
}

// ArtifactStore port (interface untuk mirror snapshot ke object storage)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}
