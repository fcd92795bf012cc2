package internal

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
)

// AppStats atomic counters for totals
type AppStats struct {
	start        time.Time
	FilesFound   atomic.Int64
	FilesScanned atomic.Int64
	FilesMatched atomic.Int64
	Matches      atomic.Int64
	DirsPruned   atomic.Int64
	Errors       atomic.Int64

	mu   sync.Mutex
	errs *multierror.Error
}

func (s *AppStats) Start() {
	s.start = time.Now()
}

func (s *AppStats) Elapsed() time.Duration {
	return time.Since(s.start)
}

// RecordError keeps a recovered error for the end-of-run summary.
func (s *AppStats) RecordError(err error) {
	s.Errors.Add(1)
	s.mu.Lock()
	s.errs = multierror.Append(s.errs, err)
	s.mu.Unlock()
}

// Err returns every recovered error, or nil.
func (s *AppStats) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs.ErrorOrNil()
}
