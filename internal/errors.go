package internal

import (
	"context"
	"errors"
	"fmt"
)

// Exit codes reported by the CLI.
const (
	ExitOK               = 0
	ExitMissingArgument  = 2
	ExitRootInaccessible = 3
	ExitInvalidConfig    = 4
	ExitOutputFailed     = 5
	ExitCancelled        = 130
)

var (
	// configuration, fatal before the walk starts
	ErrMissingArgument  = errors.New("missing required argument")
	ErrRootInaccessible = errors.New("root path inaccessible")
	ErrInvalidPattern   = errors.New("invalid pattern")

	// recovered inside the walk
	ErrPathAccess   = errors.New("directory unreadable")
	ErrFileVanished = errors.New("file vanished before it could be opened")
	ErrFileAccess   = errors.New("file unreadable")
	ErrFileDecode   = errors.New("file is not valid UTF-8 text")
)

// ConfigError is returned by ScanConfig.Validate. Nothing has been scanned when it is seen.
type ConfigError struct {
	Kind   error
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ConfigError) Unwrap() error { return e.Kind }

// FileError describes a per-file or per-directory failure the walker recovers from.
type FileError struct {
	Path string
	Kind error
	Err  error
}

func (e *FileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// OutputError means the report could not be persisted. The in-memory report is still valid.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("write report %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by the scan pipeline to a process exit code.
func ExitCode(err error) int {
	var outErr *OutputError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ExitCancelled
	case errors.As(err, &outErr):
		return ExitOutputFailed
	case errors.Is(err, ErrMissingArgument):
		return ExitMissingArgument
	case errors.Is(err, ErrRootInaccessible):
		return ExitRootInaccessible
	default:
		return ExitInvalidConfig
	}
}
