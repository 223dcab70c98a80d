package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide structured logger.
var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stdout)
}

// Init applies the configured level and formatter. Unknown levels fall back to info.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// WithComponent returns an entry tagged with the given component name.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
