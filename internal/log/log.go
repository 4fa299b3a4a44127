// Package log configures apex/log for the q3p binary and the Lambda
// handlers. The level comes from the Q3P_LOG env variable; the default is
// info so provisioning progress is visible, matching the interactive nature
// of the tool.
package log

import (
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
)

// Init installs the handler and level. Call once at process start.
func Init() {
	level := log.InfoLevel
	switch strings.ToLower(os.Getenv("Q3P_LOG")) {
	case "debug":
		level = log.DebugLevel
	case "warn":
		level = log.WarnLevel
	case "error":
		level = log.ErrorLevel
	}
	log.SetHandler(handler{})
	log.SetLevel(level)
}

// handler writes single-line entries to stderr so stdout stays reserved for
// report output (tables and JSON).
type handler struct{}

func (handler) HandleLog(e *log.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s %s", strings.ToUpper(e.Level.String()), e.Message)
	for _, f := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%v", f, e.Fields.Get(f))
	}
	fmt.Fprintln(os.Stderr, b.String())
	return nil
}

// Debugf logs at debug level.
func Debugf(format string, args ...any) { log.Debugf(format, args...) }

// Infof logs at info level.
func Infof(format string, args ...any) { log.Infof(format, args...) }

// Warnf logs at warn level.
func Warnf(format string, args ...any) { log.Warnf(format, args...) }

// Errorf logs at error level.
func Errorf(format string, args ...any) { log.Errorf(format, args...) }

// WithField returns an entry with one structured field attached.
func WithField(key string, value any) *log.Entry { return log.WithField(key, value) }

// WithError returns an entry carrying err.
func WithError(err error) *log.Entry { return log.WithError(err) }
