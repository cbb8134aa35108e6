// Package logging holds the diagnostic logger shared by the analysis packages.
package logging

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf and
// may be replaced by SetLogger, e.g. to mute the output in tests.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the logger. Passing nil sets a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
