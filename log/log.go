package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	// Log is the process wide logger. Packages log through it instead of
	// holding their own logger instances.
	Log *logrus.Entry
)

// Tests and tools that never call InitLogger still get a usable logger.
func init() {
	InitLogger("dev", "info")
}

// InitLogger (re)configures Log. Production logs are json formatted so they
// can be shipped as is, development logs stay human readable on stderr.
func InitLogger(env string, level string) {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	if env == "prod" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	Log = logger.WithFields(logrus.Fields{
		"service": "greenmag",
		"env":     env,
	})
}
