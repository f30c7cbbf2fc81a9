package logger

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Log interface {
	WithField(name string, value interface{}) Log
	WithFields(fields Fields) Log
	Trace(args ...interface{})
	Tracef(msg string, args ...interface{})
	Debug(args ...interface{})
	Debugf(msg string, args ...interface{})
	Info(args ...interface{})
	Infof(msg string, args ...interface{})
	Warn(args ...interface{})
	Warnf(msg string, args ...interface{})
	Error(args ...interface{})
	Errorf(msg string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(msg string, args ...interface{})
	Panic(args ...interface{})
	Panicf(msg string, args ...interface{})
	Print(args ...interface{})
}

// Fields is a set of keys/values to include in a structured log message.
type Fields map[string]interface{}

type LogFilePath string

// LogFactory produces a logger that can be used to log messages for the
// specified subsystem.
type LogFactory func(subsystem string) Log

const timestampFormat = "2006-01-02 15:04:05"

// LogrusLogger is a Log implementation that using the Logrus library.
type LogrusLogger struct {
	*logrus.Entry
}

func (l *LogrusLogger) WithField(name string, value interface{}) Log {
	return &LogrusLogger{Entry: l.Entry.WithField(name, value)}
}

func (l *LogrusLogger) WithFields(fields Fields) Log {
	return &LogrusLogger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

// makeFactory returns a LogFactory that builds one logrus logger per subsystem writing to out.
// Each logger is registered so its level can be changed at runtime.
func makeFactory(logRegistry *LogRegistry, out io.Writer, formatter logrus.Formatter, withSystem bool) LogFactory {
	return func(subsystem string) Log {
		log := logrus.New()
		log.SetLevel(logRegistry.GetLogLevel(subsystem))
		log.SetOutput(out)
		log.SetFormatter(formatter)
		fields := logrus.Fields{}
		if withSystem {
			fields["system"] = subsystem
		}
		logRegistry.RegisterLogger(subsystem, log)
		return &LogrusLogger{Entry: log.WithFields(fields)}
	}
}

// MakeLogrusLogFactoryStdOut logs human readable lines when stdout is a terminal and
// JSON lines otherwise (e.g. when running in a container).
func MakeLogrusLogFactoryStdOut(logRegistry *LogRegistry) LogFactory {
	var formatter logrus.Formatter
	if isatty.IsTerminal(os.Stdout.Fd()) {
		formatter = &logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
			DisableQuote:    true,
		}
	} else {
		formatter = &logrus.JSONFormatter{TimestampFormat: timestampFormat}
	}
	return makeFactory(logRegistry, os.Stdout, formatter, true)
}

// MakeLogrusLogFactoryStdErrPlain creates a log factory that writes plain lines with no timestamp
// to stderr, leaving stdout free for command output.
func MakeLogrusLogFactoryStdErrPlain(logRegistry *LogRegistry) LogFactory {
	return makeFactory(logRegistry, os.Stderr, &logrus.TextFormatter{DisableTimestamp: true}, false)
}

func MakeLogrusLogFactoryToFile(logRegistry *LogRegistry, logFile LogFilePath) (LogFactory, error) {
	file, err := os.OpenFile(string(logFile), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "Error opening log file: %s", logFile)
	}
	formatter := &logrus.TextFormatter{TimestampFormat: timestampFormat, FullTimestamp: true}
	return makeFactory(logRegistry, file, formatter, true), nil
}

// MakeLogrusLogFactoryToWriter creates a log factory writing JSON lines to w.
func MakeLogrusLogFactoryToWriter(logRegistry *LogRegistry, w io.Writer) LogFactory {
	return makeFactory(logRegistry, w, &logrus.JSONFormatter{TimestampFormat: timestampFormat}, true)
}

// NoOpLog implements the Log interface without actually performing any logging or other actions.
type NoOpLog struct {
}

func NewNoOpLog() *NoOpLog {
	return &NoOpLog{}
}

// NoOpLogFactory is a LogFactory function that always returns a NoOpLog, for when logging is not required.
func NoOpLogFactory(subsystem string) Log {
	return NewNoOpLog()
}

func (l *NoOpLog) WithField(name string, value interface{}) Log { return l }
func (l *NoOpLog) WithFields(fields Fields) Log                 { return l }
func (l *NoOpLog) Trace(args ...interface{})                    {}
func (l *NoOpLog) Tracef(msg string, args ...interface{})       {}
func (l *NoOpLog) Debug(args ...interface{})                    {}
func (l *NoOpLog) Debugf(msg string, args ...interface{})       {}
func (l *NoOpLog) Info(args ...interface{})                     {}
func (l *NoOpLog) Infof(msg string, args ...interface{})        {}
func (l *NoOpLog) Warn(args ...interface{})                     {}
func (l *NoOpLog) Warnf(msg string, args ...interface{})        {}
func (l *NoOpLog) Error(args ...interface{})                    {}
func (l *NoOpLog) Errorf(msg string, args ...interface{})       {}
func (l *NoOpLog) Fatal(args ...interface{})                    {}
func (l *NoOpLog) Fatalf(msg string, args ...interface{})       {}
func (l *NoOpLog) Panic(args ...interface{})                    {}
func (l *NoOpLog) Panicf(msg string, args ...interface{})       {}
func (l *NoOpLog) Print(args ...interface{})                    {}
