package internal

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Console echoes file sections while the scan is still running.
type Console struct {
	w     io.Writer
	title *color.Color
	path  *color.Color
	index *color.Color
}

func NewConsole(w io.Writer, colored bool) *Console {
	c := &Console{
		w:     w,
		title: color.New(color.Bold),
		path:  color.New(color.FgCyan, color.Bold),
		index: color.New(color.FgYellow),
	}
	if colored {
		c.title.EnableColor()
		c.path.EnableColor()
		c.index.EnableColor()
	} else {
		c.title.DisableColor()
		c.path.DisableColor()
		c.index.DisableColor()
	}
	return c
}

func (c *Console) Header() {
	c.title.Fprintln(c.w, "TODO MASTER")
	fmt.Fprintln(c.w, separator)
}

func (c *Console) File(fr *FileReport) {
	fmt.Fprintln(c.w)
	c.path.Fprintln(c.w, fr.Path)
	fmt.Fprintln(c.w, separator)
	for _, rec := range fr.Records {
		c.index.Fprintf(c.w, "%d:", rec.Line)
		fmt.Fprintln(c.w, rec.Text)
	}
}
