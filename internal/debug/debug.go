// Package debug gates diagnostic logging behind environment flags.
package debug

import (
	"io"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type debug struct {
	Mutate  atomic.Bool
	Dispose atomic.Bool
	Borrow  atomic.Bool
}

var (
	d   *debug
	log *logrus.Logger
)

func init() {
	d = &debug{}
	d.Mutate.Store(boolEnv("ARBOR_DEBUG_MUTATE"))
	d.Dispose.Store(boolEnv("ARBOR_DEBUG_DISPOSE"))
	d.Borrow.Store(boolEnv("ARBOR_DEBUG_BORROW"))

	log = logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

// Fields are structured key/value pairs attached to a log line.
type Fields = logrus.Fields

// Mutate reports whether structural edits are logged.
func Mutate() bool {
	return d.Mutate.Load()
}

// Dispose reports whether subtree teardown is logged.
func Dispose() bool {
	return d.Dispose.Load()
}

// Borrow reports whether borrow conflicts are logged.
func Borrow() bool {
	return d.Borrow.Load()
}

// Enable turns every flag on. It is safe to call while trees are in use
// on other goroutines.
func Enable() {
	d.Mutate.Store(true)
	d.Dispose.Store(true)
	d.Borrow.Store(true)
}

// SetOutput redirects the logger, mostly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Log writes msg with the given fields at debug level.
func Log(msg string, fields Fields) {
	log.WithFields(fields).Debug(msg)
}

// Logf writes a formatted line at debug level.
func Logf(msg string, args ...any) {
	log.Debugf(msg, args...)
}
