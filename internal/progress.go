package internal

import (
	"io"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
)

// Progress is a spinner counting scanned files. A nil *Progress is a no-op.
type Progress struct {
	bar *progressbar.ProgressBar
}

func NewProgress(w io.Writer, root string) *Progress {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("scanning "+filepath.Base(root)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return &Progress{bar: bar}
}

func (p *Progress) Step() {
	if p == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *Progress) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}
