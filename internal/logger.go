package internal

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// Diagnostics is the sink the engine reports recovered problems and prunes to.
// *logrus.Logger and *logrus.Entry both satisfy it.
type Diagnostics interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// InitLogger initializes the logger with optional file output.
func InitLogger(logfile, level string) {
	configureLogger(logrus.StandardLogger(), logfile, level)
}

// configureLogger sets up l; a non-empty logfile is written through a size-capped
// rotating writer and every entry carries its call site.
func configureLogger(l *logrus.Logger, logfile, level string) {
	l.SetFormatter(&logrus.TextFormatter{
		ForceColors:   logfile == "",
		FullTimestamp: true,
		DisableQuote:  true,
		PadLevelText:  true,
	})
	l.SetReportCaller(true)
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	} else if level != "" {
		l.Warnf("Unknown log level %q, using %s", level, l.GetLevel())
	}
	if logfile != "" {
		l.SetOutput(newLogWriter(logfile))
	}
}

func newLogWriter(logfile string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logfile,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
	}
}

// withFields attaches structured fields when the sink is a logrus logger.
func withFields(d Diagnostics, fields logrus.Fields) Diagnostics {
	if fl, ok := d.(logrus.FieldLogger); ok {
		return fl.WithFields(fields)
	}
	return d
}

type discard struct{}

func (discard) Debugf(string, ...interface{}) {}
func (discard) Infof(string, ...interface{})  {}
func (discard) Warnf(string, ...interface{})  {}
