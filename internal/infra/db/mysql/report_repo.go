package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/wuwuwuxn/sheetserver/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save insert/update Report record
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO upload_reports
(id, filename, size, uploaded_at, status, exit_code, duration_ms, history_file)
VALUES (?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), exit_code=VALUES(exit_code),
 duration_ms=VALUES(duration_ms), history_file=VALUES(history_file);
`
	uploaded := rep.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		rep.ID, rep.Filename, rep.Size, uploaded,
		rep.Status, rep.ExitCode, rep.DurationMS, rep.HistoryFile,
	)
	return err
}

// Latest reports, newest first
func (r *ReportRepository) Latest(ctx context.Context, limit int) ([]*domain.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, filename, size, uploaded_at, status, exit_code, duration_ms, history_file
FROM upload_reports
ORDER BY uploaded_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Report
	for rows.Next() {
		var rep domain.Report
		if err := rows.Scan(
			&rep.ID, &rep.Filename, &rep.Size, &rep.UploadedAt,
			&rep.Status, &rep.ExitCode, &rep.DurationMS, &rep.HistoryFile,
		); err != nil {
			return nil, err
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}
