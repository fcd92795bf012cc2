package internal

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

const statsInterval = 2 * time.Second

// Engine drives one scan. It is not reusable across scans.
type Engine struct {
	cfg    *ScanConfig
	walker *Walker
	log    Diagnostics
	stats  *AppStats
	now    func() time.Time
}

func NewEngine(cfg *ScanConfig, log Diagnostics, stats *AppStats) *Engine {
	if log == nil {
		log = discard{}
	}
	if stats == nil {
		stats = &AppStats{}
	}
	return &Engine{
		cfg:    cfg,
		walker: NewWalker(cfg, log, stats),
		log:    log,
		stats:  stats,
		now:    time.Now,
	}
}

// WithProgress attaches a spinner that ticks once per scanned file.
func (e *Engine) WithProgress(p *Progress) *Engine {
	e.walker.Progress = p
	return e
}

// WithClock overrides the report timestamp source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Run scans the tree and returns the report. onReport, if set, sees every file
// section as soon as it is appended. On cancellation the partial report is returned
// together with ctx.Err().
func (e *Engine) Run(ctx context.Context, onReport func(*FileReport)) (*Report, error) {
	e.stats.Start()
	report := NewReport(e.now())

	tickCtx, stopTicker := context.WithCancel(ctx)
	defer stopTicker()
	go e.logStats(tickCtx)
	defer e.walker.Progress.Finish()

	for fr, err := range e.Reports(ctx) {
		if err != nil {
			return report, err
		}
		report.Append(fr)
		if onReport != nil {
			onReport(fr)
		}
	}
	return report, nil
}

// Reports yields file sections in discovery order, sequentially or from a worker pool.
func (e *Engine) Reports(ctx context.Context) iter.Seq2[*FileReport, error] {
	if !e.cfg.concurrent() {
		return e.walker.Walk(ctx)
	}
	return e.pooled(ctx)
}

type scanTask struct {
	seq  int
	path string
}

type scanResult struct {
	seq    int
	report *FileReport
}

// pooled scans files on an ants pool and re-orders results by discovery sequence,
// so the report is identical to a sequential run.
func (e *Engine) pooled(parent context.Context) iter.Seq2[*FileReport, error] {
	return func(yield func(*FileReport, error) bool) {
		ctx, cancel := context.WithCancel(parent)
		defer cancel()

		results := make(chan scanResult, e.cfg.Workers)
		var wg sync.WaitGroup

		pool, err := ants.NewPoolWithFunc(e.cfg.Workers, func(i interface{}) {
			defer wg.Done()
			t := i.(scanTask)
			res := scanResult{seq: t.seq}
			if ctx.Err() == nil {
				res.report = e.walker.scan(t.path)
			}
			select {
			case results <- res:
			case <-ctx.Done():
			}
		})
		if err != nil {
			yield(nil, fmt.Errorf("pool: %w", err))
			return
		}

		walkErr := make(chan error, 1)
		go func() {
			defer close(results)
			defer pool.Release()
			seq := 0
			for path, err := range e.walker.Candidates(ctx) {
				if err != nil {
					walkErr <- err
					break
				}
				wg.Add(1)
				if err := pool.Invoke(scanTask{seq: seq, path: path}); err != nil {
					wg.Done()
					withFields(e.log, logrus.Fields{"file": path, "err": err}).Warnf("submit task")
					// keep the sequence contiguous
					select {
					case results <- scanResult{seq: seq}:
					case <-ctx.Done():
					}
				}
				seq++
			}
			wg.Wait()
		}()

		pending := make(map[int]*FileReport)
		next := 0
		for {
			select {
			case res, ok := <-results:
				if !ok {
					select {
					case err := <-walkErr:
						yield(nil, err)
					default:
						if err := parent.Err(); err != nil {
							yield(nil, err)
						}
					}
					return
				}
				pending[res.seq] = res.report
				for {
					fr, ready := pending[next]
					if !ready {
						break
					}
					delete(pending, next)
					next++
					if fr != nil && !yield(fr, nil) {
						return
					}
				}
			case <-parent.Done():
				yield(nil, parent.Err())
				return
			}
		}
	}
}

func (e *Engine) logStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.log.Debugf("Stats: found=%d scanned=%d matched=%d pruned=%d errors=%d",
				e.stats.FilesFound.Load(), e.stats.FilesScanned.Load(), e.stats.FilesMatched.Load(),
				e.stats.DirsPruned.Load(), e.stats.Errors.Load())
		}
	}
}
