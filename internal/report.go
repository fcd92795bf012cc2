package internal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	// Attribution is written into every report header.
	Attribution = "github.com/eclectickmedia/todotracker"

	separator  = "--------"
	headerGap  = "                  "
	lockSuffix = ".lock"
	lockRetry  = 50 * time.Millisecond
)

// Report accumulates file sections in discovery order.
type Report struct {
	Generated   time.Time
	Attribution string

	mu    sync.Mutex
	files []*FileReport
}

func NewReport(generated time.Time) *Report {
	return &Report{Generated: generated, Attribution: Attribution}
}

// Append adds a file section. Reports without records are ignored.
func (r *Report) Append(fr *FileReport) {
	if fr == nil || len(fr.Records) == 0 {
		return
	}
	r.mu.Lock()
	r.files = append(r.files, fr)
	r.mu.Unlock()
}

// Files returns the sections appended so far.
func (r *Report) Files() []*FileReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*FileReport, len(r.files))
	copy(out, r.files)
	return out
}

// Header is the first line of the report, without the trailing newline.
func (r *Report) Header() string {
	return fmt.Sprintf("TODO MASTER (%s)%s*Generated by %s*",
		r.Generated.Format(time.ANSIC), headerGap, r.Attribution)
}

// Render returns the whole report as written by Persist.
func (r *Report) Render() string {
	var sb strings.Builder
	_, _ = r.WriteTo(&sb)
	return sb.String()
}

// WriteTo implements io.WriterTo.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	bw.WriteString(r.Header())
	bw.WriteString("\n" + separator + "\n")
	for _, fr := range r.Files() {
		writeSection(bw, fr)
	}
	err := bw.Flush()
	return cw.n, err
}

func writeSection(bw *bufio.Writer, fr *FileReport) {
	bw.WriteString("\n")
	bw.WriteString(fr.Path)
	bw.WriteString("\n\n" + separator + "\n\n")
	for _, rec := range fr.Records {
		bw.WriteString(strconv.Itoa(rec.Line))
		bw.WriteByte(':')
		bw.WriteString(rec.Text)
		bw.WriteByte('\n')
	}
}

// Persist writes the report to path. The content goes to a temp file in the same
// directory which replaces path only after it was flushed and closed, so an error
// or a cancelled context never leaves a truncated report behind.
func (r *Report) Persist(ctx context.Context, path string) (err error) {
	if err := ctx.Err(); err != nil {
		return &OutputError{Path: path, Err: err}
	}

	lock := flock.New(path + lockSuffix)
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if !locked {
		return &OutputError{Path: path, Err: fmt.Errorf("report is locked by another process")}
	}
	// the lock file stays behind: unlinking it would let two writers lock different inodes
	defer lock.Unlock()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &OutputError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = r.WriteTo(tmp); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if err = ctx.Err(); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if err = os.Rename(tmpName, path); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
