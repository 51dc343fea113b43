package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Configure sets up the global logrus logger used by every package.
func Configure(level, format string) {
	ConfigureOutput(os.Stdout, level, format, time.Local)
}

// ConfigureOutput is Configure with an explicit writer and timezone.
func ConfigureOutput(w io.Writer, level, format string, timezone *time.Location) {
	var formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if strings.EqualFold(format, "json") {
		formatter = &logrus.JSONFormatter{}
	}
	logrus.SetFormatter(LocalTimeZoneFormatter{
		Timezone:  timezone,
		Formatter: formatter,
	})
	logrus.SetOutput(w)
	logrus.SetLevel(ParseLevel(level))
}

// ParseLevel maps config spellings onto logrus levels, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return logrus.ErrorLevel
	case "debug":
		return logrus.DebugLevel
	case "trace":
		return logrus.TraceLevel
	case "fatal":
		return logrus.FatalLevel
	case "warn", "warning":
		return logrus.WarnLevel
	}
	return logrus.InfoLevel
}

type LocalTimeZoneFormatter struct {
	Timezone  *time.Location
	Formatter logrus.Formatter
}

func (u LocalTimeZoneFormatter) Format(e *logrus.Entry) ([]byte, error) {
	if u.Timezone != nil {
		e.Time = e.Time.In(u.Timezone)
	}
	return u.Formatter.Format(e)
}

// WithComponent tags entries with the emitting component.
func WithComponent(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
