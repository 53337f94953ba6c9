package testutil

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

var (
	logFile   = ""
	logLevel  = "debug"
	logStderr = false
)

func init() {
	flag.StringVar(&logFile, "log-file", logFile, "`file` to use for logging")
	flag.StringVar(&logLevel, "log-level", logLevel,
		"log level: trace, debug, info, warn, error, fatal, or panic")
	flag.BoolVar(&logStderr, "log-stderr", logStderr, "log to standard error")
	flag.BoolVar(&logStderr, "s", logStderr, "log to standard error")
}

// LogPath returns the file the tests of pkg log to unless -log-file is given.
func LogPath(pkg string) string {
	if logFile != "" {
		return logFile
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("sqlmirror_%s_test.log", pkg))
}

// SetupLogger sends the standard logger to the log file of pkg, formatted as the sqlmirror
// command formats it, and returns an entry tagged with pkg. Call it from TestMain after
// flag.Parse.
func SetupLogger(pkg string) *log.Entry {
	log.SetFormatter(&log.TextFormatter{
		DisableLevelTruncation: true,
	})

	if !logStderr {
		w, err := os.OpenFile(LogPath(pkg), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			panic(err)
		}
		fmt.Fprintln(w)
		log.SetOutput(w)
	}

	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		panic(err)
	}
	log.SetLevel(ll)

	entry := log.WithField("package", pkg)
	entry.WithField("pid", os.Getpid()).Info("tests starting")
	return entry
}
