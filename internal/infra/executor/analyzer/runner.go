package analyzer

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	domain "github.com/wuwuwuxn/sheetserver/internal/domain/reports"
)

// Runner invokes the external analyzer as a blocking subprocess. The saved
// spreadsheet path is appended as the final argument; on exit 0 the analyzer
// must have written its result document to the mailbox file in the storage
// root.
type Runner struct {
	command string
	args    []string
	workDir string
	timeout time.Duration
}

func NewRunner(command string, args []string, workDir string, timeout time.Duration) *Runner {
	return &Runner{
		command: command,
		args:    args,
		workDir: workDir,
		timeout: timeout,
	}
}

func (r *Runner) Run(ctx context.Context, req domain.RunRequest) (domain.RunResult, error) {
	start := time.Now()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := make([]string, 0, len(r.args)+1)
	args = append(args, r.args...)
	args = append(args, req.InputPath)

	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.Dir = r.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start).Milliseconds()

	exitCode := 0
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return domain.RunResult{}, &domain.RunError{
				Kind:   domain.RunErrTimeout,
				Err:    ctx.Err(),
				Stdout: stdout.String(),
				Stderr: stderr.String(),
			}
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			// ambil exit code
			exitCode = ee.ExitCode()
		} else {
			return domain.RunResult{}, &domain.RunError{Kind: domain.RunErrSpawn, Err: err}
		}
	}

	return domain.RunResult{
		ExitCode:   exitCode,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: duration,
	}, nil
}
