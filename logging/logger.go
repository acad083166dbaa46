package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logrus instance.
var Logger = logrus.New()
var once sync.Once

// Options configures InitLogger.
type Options struct {
	SystemName   string
	Level        string
	File         string // empty means stdout only
	ReportCaller bool
}

// CustomFormatter renders one line per entry with the event source and a fresh event id.
type CustomFormatter struct {
	SystemName string
}

// Format implements logrus.Formatter.
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	t := entry.Time
	b.WriteString(fmt.Sprintf("Date: %s, Time: %s, ", t.Format("2006-01-02"), t.Format("15:04:05")))
	b.WriteString(fmt.Sprintf("Event Source: %s, ", f.SystemName))
	b.WriteString(fmt.Sprintf("Event Type: %s, ", strings.ToUpper(entry.Level.String())))
	b.WriteString(fmt.Sprintf("Event ID: %s, ", uuid.New().String()))
	b.WriteString(fmt.Sprintf("Message: %s", entry.Message))

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf(", %s=%v", k, entry.Data[k]))
		}
	}

	if entry.HasCaller() {
		b.WriteString(fmt.Sprintf(", Location: %s:%d in %s", entry.Caller.File, entry.Caller.Line, entry.Caller.Function))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// InitLogger configures the global Logger. Only the first call has effect.
func InitLogger(opts Options) {
	once.Do(func() {
		configure(Logger, opts)
		if opts.File != "" {
			Logger.Infof("Event ID: LOGGER_INITIALIZED, Description: Logger initialized for %s, output to: %s", opts.SystemName, opts.File)
		} else {
			Logger.Infof("Event ID: LOGGER_INITIALIZED, Description: Logger initialized for %s, output to stdout", opts.SystemName)
		}
	})
}

func configure(l *logrus.Logger, opts Options) {
	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	l.SetOutput(out)
	l.SetFormatter(&CustomFormatter{SystemName: opts.SystemName})

	level := logrus.InfoLevel
	if opts.Level != "" {
		if lvl, err := logrus.ParseLevel(opts.Level); err == nil {
			level = lvl
		}
	}
	l.SetLevel(level)
	l.SetReportCaller(opts.ReportCaller)
}
