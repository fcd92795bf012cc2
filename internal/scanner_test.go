package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, cfg ScanConfig) (*Engine, *AppStats) {
	t.Helper()
	require.NoError(t, cfg.Validate())
	cfg.Prepare()
	logger, _ := logtest.NewNullLogger()
	stats := &AppStats{}
	e := NewEngine(&cfg, logger, stats).WithClock(func() time.Time { return fixedTime })
	return e, stats
}

func bigTree(t *testing.T) string {
	dir := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 12; i++ {
		for j := 0; j < 6; j++ {
			body := fmt.Sprintf("line\n# TODO %d/%d\n", i, j)
			if j%3 == 0 {
				body = "nothing\n"
			}
			files[fmt.Sprintf("d%02d/sub/f%d.py", i, j)] = body
		}
	}
	files["d05/broken.py"] = "# TODO \xff\n"
	writeTree(t, dir, files)
	return dir
}

func TestEngine_RunCollectsInOrder(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.py":    "# TODO fix\n",
		"b.txt":   "# TODO but wrong type\n",
		"x/c.py":  "no\n# TODO c\n",
		"to.do":   "# TODO never scan the report\n",
		"x/to.do": "# TODO never\n",
	})
	e, stats := newTestEngine(t, ScanConfig{Root: dir, Extensions: []string{"py", "do"}, Output: "to.do", Sort: true})

	var streamed []string
	report, err := e.Run(context.Background(), func(fr *FileReport) {
		streamed = append(streamed, fr.Path)
	})
	require.NoError(t, err)

	files := report.Files()
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.py"), files[0].Path)
	assert.Equal(t, filepath.Join(dir, "x", "c.py"), files[1].Path)
	assert.Equal(t, 1, files[1].Records[0].Line)
	assert.Equal(t, []string{files[0].Path, files[1].Path}, streamed)
	assert.Equal(t, int64(2), stats.Matches.Load())
	assert.Equal(t, fixedTime, report.Generated)
}

func TestEngine_PooledMatchesSequential(t *testing.T) {
	dir := bigTree(t)

	seq, seqStats := newTestEngine(t, ScanConfig{Root: dir, Extensions: []string{"py"}, Sort: true})
	want, err := seq.Run(context.Background(), nil)
	require.NoError(t, err)

	pooled, poolStats := newTestEngine(t, ScanConfig{Root: dir, Extensions: []string{"py"}, Sort: true, Workers: 4})
	got, err := pooled.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, want.Render(), got.Render())
	assert.Len(t, got.Files(), 12*4)
	assert.Equal(t, seqStats.Matches.Load(), poolStats.Matches.Load())
	assert.Equal(t, int64(1), poolStats.Errors.Load())
}

func TestEngine_PooledStopEarly(t *testing.T) {
	dir := bigTree(t)
	e, _ := newTestEngine(t, ScanConfig{Root: dir, Extensions: []string{"py"}, Sort: true, Workers: 3})

	n := 0
	for fr, err := range e.Reports(context.Background()) {
		require.NoError(t, err)
		require.NotNil(t, fr)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestEngine_Cancelled(t *testing.T) {
	dir := bigTree(t)
	for _, workers := range []int{0, 4} {
		e, _ := newTestEngine(t, ScanConfig{Root: dir, Extensions: []string{"py"}, Workers: workers})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report, err := e.Run(ctx, nil)
		require.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
		require.NotNil(t, report)
		assert.Equal(t, ExitCancelled, ExitCode(err))
	}
}
