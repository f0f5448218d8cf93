package gologger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/sirupsen/logrus"
)

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// LogrusLogger implements glog.Logger and glog.FieldsLogger on top of a
// logrus entry. Key/value arguments become fields and sensitive keys are
// redacted before they reach the formatter.
type LogrusLogger struct {
	entry *logrus.Entry
}

type Options struct {
	Output    io.Writer
	Level     string
	JSON      bool
	Formatter logrus.Formatter
}

func NewLogrusLogger(opts Options) (*LogrusLogger, error) {
	base := logrus.New()
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	base.SetOutput(output)

	level := strings.TrimSpace(opts.Level)
	if level == "" {
		level = logrus.InfoLevel.String()
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("gologger: %w", err)
	}
	base.SetLevel(parsed)

	switch {
	case opts.Formatter != nil:
		base.SetFormatter(opts.Formatter)
	case opts.JSON:
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}
	return &LogrusLogger{entry: logrus.NewEntry(base)}, nil
}

// FromLogrus wraps an already configured logrus logger.
func FromLogrus(logger *logrus.Logger) *LogrusLogger {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogrusLogger{entry: logrus.NewEntry(logger)}
}

func (l *LogrusLogger) Trace(msg string, args ...any) { l.log(logrus.TraceLevel, msg, args) }
func (l *LogrusLogger) Debug(msg string, args ...any) { l.log(logrus.DebugLevel, msg, args) }
func (l *LogrusLogger) Info(msg string, args ...any)  { l.log(logrus.InfoLevel, msg, args) }
func (l *LogrusLogger) Warn(msg string, args ...any)  { l.log(logrus.WarnLevel, msg, args) }
func (l *LogrusLogger) Error(msg string, args ...any) { l.log(logrus.ErrorLevel, msg, args) }

// Fatal records at fatal level without exiting; the caller owns the exit.
func (l *LogrusLogger) Fatal(msg string, args ...any) { l.log(logrus.FatalLevel, msg, args) }

func (l *LogrusLogger) WithContext(ctx context.Context) glog.Logger {
	if l == nil || ctx == nil {
		return l
	}
	return &LogrusLogger{entry: l.entry.WithContext(ctx)}
}

func (l *LogrusLogger) WithFields(fields map[string]any) glog.Logger {
	if l == nil || len(fields) == 0 {
		return l
	}
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(core.RedactSensitiveMap(fields)))}
}

func (l *LogrusLogger) log(level logrus.Level, msg string, args []any) {
	if l == nil || l.entry == nil {
		return
	}
	entry := l.entry
	if fields := argsToFields(args); len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(core.RedactSensitiveMap(fields)))
	}
	entry.Log(level, msg)
}

// argsToFields pairs key/value arguments. A trailing value without a key is
// kept under "extra".
func argsToFields(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	fields := make(map[string]any, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields["extra"] = args[i]
			break
		}
		key := strings.TrimSpace(fmt.Sprint(args[i]))
		if key == "" {
			key = fmt.Sprintf("arg%d", i)
		}
		fields[key] = args[i+1]
	}
	return fields
}

// Provider hands out loggers tagged with the requesting component name.
type Provider struct {
	root *LogrusLogger
}

func NewProvider(root *LogrusLogger) *Provider {
	return &Provider{root: root}
}

func (p *Provider) GetLogger(name string) glog.Logger {
	if p == nil || p.root == nil {
		return glog.Nop()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return p.root
	}
	return &LogrusLogger{entry: p.root.entry.WithField("logger", name)}
}

var (
	_ glog.Logger         = (*LogrusLogger)(nil)
	_ glog.FieldsLogger   = (*LogrusLogger)(nil)
	_ glog.LoggerProvider = (*Provider)(nil)
)
