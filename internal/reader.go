package internal

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// MatchRecord is one matched line. Line is zero-based; Text has its line terminator removed.
type MatchRecord struct {
	Path string
	Line int
	Text string
}

// FileReport holds the matches of a single file, in line order.
type FileReport struct {
	Path    string
	Records []MatchRecord
}

// ScanFile reads path line by line and returns the lines matching p.
// It returns nil, nil when nothing matched. Open failures and content that is not
// UTF-8 text are reported as *FileError; partial matches are dropped in that case.
func ScanFile(path string, p Pattern) (*FileReport, error) {
	f, err := os.Open(path)
	if err != nil {
		kind := ErrFileAccess
		if errors.Is(err, fs.ErrNotExist) {
			kind = ErrFileVanished
		}
		return nil, &FileError{Path: path, Kind: kind, Err: err}
	}
	defer f.Close()

	return matchReader(f, p, path)
}

// matchReader streams lines through a UTF-8 validator and collects matches.
func matchReader(reader io.Reader, p Pattern, path string) (*FileReport, error) {
	src := &sourceReader{r: reader}
	br := bufio.NewReaderSize(transform.NewReader(src, encoding.UTF8Validator), 64*1024)

	var records []MatchRecord
	lineNum := 0
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			text := trimEOL(line)
			if p.Match(text) {
				records = append(records, MatchRecord{Path: path, Line: lineNum, Text: text})
			}
			lineNum++
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			if src.err != nil {
				return nil, &FileError{Path: path, Kind: ErrFileAccess, Err: err}
			}
			return nil, &FileError{Path: path, Kind: ErrFileDecode, Err: err}
		}
	}

	if len(records) == 0 {
		return nil, nil
	}
	return &FileReport{Path: path, Records: records}, nil
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// sourceReader remembers I/O errors so they are not mistaken for decode errors.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}
