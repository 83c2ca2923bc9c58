// Package progress reports bulk load progress on the terminal.
package progress
