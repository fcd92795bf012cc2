package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultOutput is the report file written next to the working directory.
const DefaultOutput = "to.do"

// ScanConfig - public options from CLI.
type ScanConfig struct {
	Root              string
	Extensions        []string
	ExcludeExtensions []string
	ExcludeFiles      []string
	ExcludePaths      []string
	PatternExpr       string
	Quiet             bool
	Output            string
	Workers           int
	Sort              bool
	Progress          bool

	pattern Pattern
	paths   PathFilter
	files   FileFilter
}

// Validate checks invariants and compiles the pattern. Nothing is scanned yet.
func (c *ScanConfig) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return &ConfigError{Kind: ErrMissingArgument, Detail: "path is required"}
	}
	if len(splitList(c.Extensions)) == 0 {
		return &ConfigError{Kind: ErrMissingArgument, Detail: "at least one file type is required"}
	}
	st, err := os.Stat(c.Root)
	if err != nil {
		return &ConfigError{Kind: ErrRootInaccessible, Detail: err.Error()}
	}
	if !st.IsDir() {
		return &ConfigError{Kind: ErrRootInaccessible, Detail: fmt.Sprintf("%s is not a directory", c.Root)}
	}
	p, err := ParsePattern(c.PatternExpr)
	if err != nil {
		return err
	}
	c.pattern = p
	return nil
}

// Prepare normalises the lists and builds the filters. Call after a successful Validate.
func (c *ScanConfig) Prepare() {
	c.Extensions = splitList(c.Extensions)
	c.ExcludeExtensions = splitList(c.ExcludeExtensions)
	c.ExcludeFiles = splitList(c.ExcludeFiles)
	c.ExcludePaths = splitList(c.ExcludePaths)

	// never scan our own report
	if c.Output != "" {
		c.ExcludeFiles = appendUnique(c.ExcludeFiles, filepath.Base(c.Output))
	}
	if c.pattern == nil {
		c.pattern, _ = ParsePattern(c.PatternExpr)
	}

	c.paths = PathFilter{Exclude: c.ExcludePaths}
	c.files = FileFilter{
		Extensions:        c.Extensions,
		ExcludeExtensions: c.ExcludeExtensions,
		ExcludeFiles:      c.ExcludeFiles,
	}
}

func (c *ScanConfig) Pattern() Pattern       { return c.pattern }
func (c *ScanConfig) PathFilter() PathFilter { return c.paths }
func (c *ScanConfig) FileFilter() FileFilter { return c.files }
func (c *ScanConfig) concurrent() bool       { return c.Workers > 1 }

// splitList splits comma separated values, trims them and drops empties.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, v := range strings.Split(item, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			out = appendUnique(out, v)
		}
	}
	return out
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}
