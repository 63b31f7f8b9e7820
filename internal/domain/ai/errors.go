package ai

import "errors"

// ErrNotConfigured indicates no AI provider key was supplied in config.
var ErrNotConfigured = errors.New("ai interpretation not configured")
