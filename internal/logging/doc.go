// Package logging provides concrete implementations of the neonsql.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: writes prefixed lines to stderr (or any io.Writer)
//   - NullLogger: discards all messages (useful for testing)
//
// Data goes to stdout; every logger writes elsewhere so that query output can
// be piped. All implementations are safe for concurrent use.
package logging
