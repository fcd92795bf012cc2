package internal

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

// Walker traverses a tree depth-first, top-down: the files of a directory are visited
// before its subdirectories. Entry order is whatever the OS returns unless Sort is set.
type Walker struct {
	Root     string
	Paths    PathFilter
	Files    FileFilter
	Pattern  Pattern
	Sort     bool
	Log      Diagnostics
	Stats    *AppStats
	Progress *Progress
}

// NewWalker builds a walker from a prepared config.
func NewWalker(cfg *ScanConfig, log Diagnostics, stats *AppStats) *Walker {
	if log == nil {
		log = discard{}
	}
	if stats == nil {
		stats = &AppStats{}
	}
	return &Walker{
		Root:    cfg.Root,
		Paths:   cfg.PathFilter(),
		Files:   cfg.FileFilter(),
		Pattern: cfg.Pattern(),
		Sort:    cfg.Sort,
		Log:     log,
		Stats:   stats,
	}
}

// Walk scans every admitted file and yields the ones with matches, as soon as they
// are found. The sequence is single-pass; the only error it yields is ctx.Err().
func (w *Walker) Walk(ctx context.Context) iter.Seq2[*FileReport, error] {
	return func(yield func(*FileReport, error) bool) {
		for path, err := range w.Candidates(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			if fr := w.scan(path); fr != nil {
				if !yield(fr, nil) {
					return
				}
			}
		}
	}
}

// Candidates yields the paths of admitted files in discovery order, without opening them.
func (w *Walker) Candidates(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !w.descend(w.Root) {
			return
		}
		w.walkDir(ctx, w.Root, yield)
	}
}

// walkDir returns false once yield asked to stop or ctx was cancelled.
func (w *Walker) walkDir(ctx context.Context, dir string, yield func(string, error) bool) bool {
	if err := ctx.Err(); err != nil {
		yield("", err)
		return false
	}
	entries, err := readDir(dir, w.Sort)
	if err != nil {
		w.skipAfter(&FileError{Path: dir, Kind: ErrPathAccess, Err: err})
		if len(entries) == 0 {
			return true
		}
	}

	var subdirs []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			yield("", err)
			return false
		}
		path := filepath.Join(dir, e.Name())
		isDir, isFile := classify(path, e)
		if isDir {
			subdirs = append(subdirs, path)
			continue
		}
		if !isFile {
			continue
		}
		if token, rejected := w.Files.excludedBy(e.Name()); rejected {
			if token != "" {
				withFields(w.Log, logrus.Fields{"file": path, "token": token}).Debugf("Skipped %s", e.Name())
			}
			continue
		}
		w.Stats.FilesFound.Add(1)
		if !yield(path, nil) {
			return false
		}
	}

	for _, sub := range subdirs {
		if !w.descend(sub) {
			continue
		}
		if !w.walkDir(ctx, sub, yield) {
			return false
		}
	}
	return true
}

func (w *Walker) descend(dir string) bool {
	if token, excluded := w.Paths.excludedBy(dir); excluded {
		w.Stats.DirsPruned.Add(1)
		withFields(w.Log, logrus.Fields{"path": dir, "token": token}).Debugf("Skipped %s", dir)
		return false
	}
	return true
}

func (w *Walker) scan(path string) *FileReport {
	fr, err := ScanFile(path, w.Pattern)
	w.Stats.FilesScanned.Add(1)
	w.Progress.Step()
	if err != nil {
		w.skipAfter(err)
		return nil
	}
	if fr != nil {
		w.Stats.FilesMatched.Add(1)
		w.Stats.Matches.Add(int64(len(fr.Records)))
	}
	return fr
}

// skipAfter logs a per-file or per-directory failure and keeps the walk going.
func (w *Walker) skipAfter(err error) {
	w.Stats.RecordError(err)
	withFields(w.Log, logrus.Fields{"err": err}).Warnf("Skipping after error")
}

// readDir lists a directory in OS order. Partial listings are returned with the error.
func readDir(dir string, sorted bool) ([]os.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if sorted {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	}
	return entries, err
}

// classify follows symlinks to files but never into directories.
func classify(path string, e os.DirEntry) (isDir, isFile bool) {
	switch {
	case e.IsDir():
		return true, false
	case e.Type().IsRegular():
		return false, true
	case e.Type()&os.ModeSymlink != 0:
		st, err := os.Stat(path)
		return false, err == nil && st.Mode().IsRegular()
	default:
		return false, false
	}
}
