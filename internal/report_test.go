package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2016, time.July, 28, 13, 31, 11, 0, time.UTC)

func sampleReport() *Report {
	r := NewReport(fixedTime)
	r.Append(&FileReport{Path: "src/a.py", Records: []MatchRecord{
		{Path: "src/a.py", Line: 0, Text: "# TODO fix"},
		{Path: "src/a.py", Line: 7, Text: "    x = 1  # TODO: rename"},
	}})
	r.Append(nil)
	r.Append(&FileReport{Path: "src/empty.py"})
	r.Append(&FileReport{Path: "src/b.py", Records: []MatchRecord{
		{Path: "src/b.py", Line: 3, Text: "# TODO b"},
	}})
	return r
}

func TestReport_RenderFormat(t *testing.T) {
	want := "TODO MASTER (Thu Jul 28 13:31:11 2016)                  *Generated by github.com/eclectickmedia/todotracker*\n" +
		"--------\n" +
		"\n" +
		"src/a.py\n" +
		"\n" +
		"--------\n" +
		"\n" +
		"0:# TODO fix\n" +
		"7:    x = 1  # TODO: rename\n" +
		"\n" +
		"src/b.py\n" +
		"\n" +
		"--------\n" +
		"\n" +
		"3:# TODO b\n"

	assert.Equal(t, want, sampleReport().Render())
}

func TestReport_EmptyIsHeaderOnly(t *testing.T) {
	r := NewReport(fixedTime)
	assert.Equal(t, r.Header()+"\n--------\n", r.Render())
	assert.Empty(t, r.Files())
}

func TestReport_HeaderPadsSingleDigitDay(t *testing.T) {
	r := NewReport(time.Date(2024, time.March, 5, 9, 4, 0, 0, time.UTC))
	assert.Equal(t, "TODO MASTER (Tue Mar  5 09:04:00 2024)                  *Generated by "+Attribution+"*", r.Header())
}

func TestReport_WriteToCountsBytes(t *testing.T) {
	r := sampleReport()
	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, r.Render(), buf.String())
}

func TestReport_PersistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "to.do")
	r := sampleReport()

	require.NoError(t, r.Persist(context.Background(), out))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, r.Render(), string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"to.do", "to.do.lock"}, names, "temp file must be cleaned up")

	st, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), st.Mode().Perm())
}

func TestReport_PersistLockFileOutlivesWriters(t *testing.T) {
	out := filepath.Join(t.TempDir(), "to.do")
	other := flock.New(out + lockSuffix)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	ctx, cancel := context.WithTimeout(context.Background(), 5*lockRetry)
	defer cancel()
	err = sampleReport().Persist(ctx, out)
	var outErr *OutputError
	require.ErrorAs(t, err, &outErr)
	assert.NoFileExists(t, out)

	require.NoError(t, other.Unlock())
	require.NoError(t, sampleReport().Persist(context.Background(), out))
	require.NoError(t, sampleReport().Persist(context.Background(), out))
	assert.FileExists(t, out+lockSuffix, "the lock file must stay so every writer locks the same inode")

	relock, err := other.TryLock()
	require.NoError(t, err)
	assert.True(t, relock, "Persist must release the lock")
	require.NoError(t, other.Unlock())
}

func TestReport_PersistReplacesExisting(t *testing.T) {
	out := filepath.Join(t.TempDir(), "to.do")
	require.NoError(t, os.WriteFile(out, []byte("stale content that is much longer than the new report......"), 0644))

	r := NewReport(fixedTime)
	require.NoError(t, r.Persist(context.Background(), out))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, r.Render(), string(b))
}

func TestReport_PersistFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing", "to.do")
	err := sampleReport().Persist(context.Background(), out)

	var outErr *OutputError
	require.ErrorAs(t, err, &outErr)
	assert.Equal(t, out, outErr.Path)
	assert.Equal(t, ExitOutputFailed, ExitCode(err))
	assert.NoFileExists(t, out)
}

func TestReport_PersistCancelledWritesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "to.do")
	require.NoError(t, os.WriteFile(out, []byte("previous"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sampleReport().Persist(ctx, out)
	require.ErrorIs(t, err, context.Canceled)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(b), "existing report must be left untouched")
}
