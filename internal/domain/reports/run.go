package reports

// RunRequest untuk Runner
type RunRequest struct {
	InputPath string
}

// RunResult hasil dari Runner
type RunResult struct {
	ExitCode   int
	Stdout     string
	Stderr     string
	DurationMS int64
}
