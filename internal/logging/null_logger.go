package logging

import "github.com/vvka-141/neonsql/pkg/neonsql"

// NullLogger discards all log messages.
type NullLogger struct{}

// NewNullLogger creates a new NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Verbose(format string, args ...interface{}) {}
func (l *NullLogger) Info(format string, args ...interface{})    {}
func (l *NullLogger) Error(format string, args ...interface{})   {}

var (
	_ neonsql.Logger = (*NullLogger)(nil)
	_ neonsql.Logger = (*ConsoleLogger)(nil)
)
