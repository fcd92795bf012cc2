package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"TodoTracker/internal"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	buildName   = "TodoTracker"
	version     = "V1.0"
	versionDate = "Thu Jul 28 13:31:11 2016"
)

var versionString = fmt.Sprintf("%s %s (c) Eclectick Media Solutions, circa %s", buildName, version, versionDate)

func newApp(stdout, stderr io.Writer) *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, versionString)
	}

	return &cli.App{
		Name:      buildName,
		Usage:     "Collect '# TODO' lines from a source tree into a single to.do report",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "The path to search for TODO lines (required)",
				EnvVars: []string{"TODOTRACKER_PATH"},
			},
			&cli.StringSliceFlag{
				Name:    "filetypes",
				Aliases: []string{"f"},
				Usage:   "File extensions without the '.' to check for, comma separated (required). Matched as substrings of the file name",
				EnvVars: []string{"TODOTRACKER_FILETYPES"},
			},
			&cli.StringSliceFlag{
				Name:    "exclude_extensions",
				Aliases: []string{"ee"},
				Usage:   "File extensions to exclude, comma separated",
			},
			&cli.StringSliceFlag{
				Name:    "exclude_files",
				Aliases: []string{"ef"},
				Usage:   "File names to exclude, comma separated",
			},
			&cli.StringSliceFlag{
				Name:    "exclude_path",
				Aliases: []string{"ep"},
				Usage:   "Skip every directory whose path contains one of these strings, comma separated",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"Q"},
				Usage:   "Do not echo TODO items as they are found",
			},
			&cli.StringFlag{
				Name:    "pattern",
				Aliases: []string{"r"},
				Usage:   "Tag to search for: plain text, 'plain:i:<text>' for case-insensitive, or 're:<regex>'",
				Value:   internal.DefaultPattern,
				EnvVars: []string{"TODOTRACKER_PATTERN"},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file; empty disables writing it",
				Value:   internal.DefaultOutput,
				EnvVars: []string{"TODOTRACKER_OUTPUT"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Scan files on this many workers (0 or 1 - sequential). Report order is unchanged",
			},
			&cli.BoolFlag{
				Name:  "sort",
				Usage: "Visit directory entries in name order instead of OS order",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a spinner on stderr while scanning (terminals only)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Abort the scan after this long (e.g. 30s, 10m)",
			},
			&cli.StringFlag{
				Name:    "logfile",
				Usage:   "Write logs into file instead of stderr",
				EnvVars: []string{"TODOTRACKER_LOGFILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn, error",
				Value:   "info",
				EnvVars: []string{"TODOTRACKER_LOG_LEVEL"},
			},
		},
		Action: func(c *cli.Context) error {
			internal.InitLogger(c.String("logfile"), c.String("log-level"))
			if c.String("logfile") == "" {
				logrus.SetOutput(c.App.ErrWriter)
			}
			return run(c)
		},
	}
}

func run(c *cli.Context) error {
	cfg := internal.ScanConfig{
		Root:              c.String("path"),
		Extensions:        c.StringSlice("filetypes"),
		ExcludeExtensions: c.StringSlice("exclude_extensions"),
		ExcludeFiles:      c.StringSlice("exclude_files"),
		ExcludePaths:      c.StringSlice("exclude_path"),
		PatternExpr:       c.String("pattern"),
		Quiet:             c.Bool("quiet"),
		Output:            c.String("output"),
		Workers:           c.Int("workers"),
		Sort:              c.Bool("sort"),
		Progress:          c.Bool("progress"),
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("%v. Use -h to view help.", err), internal.ExitCode(err))
	}
	cfg.Prepare()

	// ctx with timeout + OS signals
	base := context.Background()
	var cancel context.CancelFunc
	if t := c.Duration("timeout"); t > 0 {
		base, cancel = context.WithTimeout(base, t)
	} else {
		base, cancel = context.WithCancel(base)
	}
	defer cancel()

	ctx, stop := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logrus.WithField("scan_id", uuid.NewString())
	log.WithFields(logrus.Fields{
		"root":    cfg.Root,
		"pattern": cfg.Pattern().Desc(),
		"workers": cfg.Workers,
	}).Info("TodoTracker started")

	var stats internal.AppStats
	engine := internal.NewEngine(&cfg, log, &stats)
	if cfg.Progress && isTerminal(c.App.ErrWriter) {
		engine.WithProgress(internal.NewProgress(c.App.ErrWriter, cfg.Root))
	}

	var console *internal.Console
	if !cfg.Quiet {
		console = internal.NewConsole(c.App.Writer, isTerminal(c.App.Writer))
		console.Header()
	}

	report, err := engine.Run(ctx, func(fr *internal.FileReport) {
		if console != nil {
			console.File(fr)
		}
	})
	if err != nil {
		// nothing is persisted for an aborted walk
		log.WithError(err).Warn("Scan cancelled")
		return cli.Exit(err.Error(), internal.ExitCode(err))
	}

	if skipped := stats.Err(); skipped != nil {
		log.WithError(skipped).Debug("Skipped entries")
		log.Warnf("%d files or directories were skipped after errors", stats.Errors.Load())
	}
	log.WithFields(logrus.Fields{
		"found":   stats.FilesFound.Load(),
		"scanned": stats.FilesScanned.Load(),
		"files":   stats.FilesMatched.Load(),
		"matches": stats.Matches.Load(),
		"pruned":  stats.DirsPruned.Load(),
		"errors":  stats.Errors.Load(),
	}).Infof("TodoTracker finished in %s", stats.Elapsed())

	if cfg.Output == "" {
		return nil
	}
	if err := report.Persist(ctx, cfg.Output); err != nil {
		var outErr *internal.OutputError
		if errors.As(err, &outErr) {
			log.WithError(outErr.Err).WithField("output", outErr.Path).Error("Report not written")
		}
		return cli.Exit(err.Error(), internal.ExitCode(err))
	}
	log.WithField("output", cfg.Output).Debug("Report written")
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
