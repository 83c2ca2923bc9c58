package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
)

func TestConsoleLogger_Verbose_WhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, true)
	logger.Verbose("loading %s", "events")

	if got, want := buf.String(), "[VERBOSE] loading events\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestConsoleLogger_Verbose_WhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, false)
	logger.Verbose("loading %s", "events")

	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
	if logger.IsVerbose() {
		t.Error("IsVerbose() = true for a non-verbose logger")
	}
}

func TestConsoleLogger_InfoAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, false)
	logger.Info("Loaded %d rows", 3)
	logger.Error("row %d rejected", 2)

	want := "Loaded 3 rows\n[ERROR] row 2 rejected\n"
	if got := buf.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestConsoleLogger_NoArgsKeepsPercent(t *testing.T) {
	var buf bytes.Buffer
	NewWriterLogger(&buf, false).Info("100% done")

	if got := buf.String(); got != "100% done\n" {
		t.Errorf("Expected literal percent, got %q", got)
	}
}

func TestConsoleLogger_DefaultsToStderr(t *testing.T) {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	logger := NewConsoleLogger(false)
	logger.Error("to stderr")

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	if got := buf.String(); got != "[ERROR] to stderr\n" {
		t.Errorf("Expected stderr output, got %q", got)
	}
}

func TestConsoleLogger_ConcurrentSafety(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, true)

	const goroutines = 10
	const messagesPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < messagesPerGoroutine; j++ {
				logger.Verbose("goroutine %d message %d", id, j)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != goroutines*messagesPerGoroutine {
		t.Fatalf("Expected %d lines, got %d", goroutines*messagesPerGoroutine, len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "[VERBOSE] goroutine ") {
			t.Errorf("interleaved or malformed line: %q", line)
		}
	}
}

func TestNullLogger_DiscardsAllMessages(t *testing.T) {
	logger := NewNullLogger()
	logger.Verbose("v %d", 1)
	logger.Info("i %d", 2)
	logger.Error("e %d", 3)
}

func BenchmarkConsoleLogger_Verbose(b *testing.B) {
	logger := NewWriterLogger(io.Discard, true)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Verbose("batch %d sent", i)
	}
}

func BenchmarkConsoleLogger_VerboseDisabled(b *testing.B) {
	logger := NewWriterLogger(io.Discard, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Verbose("batch %d sent", i)
	}
}

func ExampleNullLogger() {
	logger := NewNullLogger()
	logger.Info("This will not be printed")
	fmt.Println("done")
	// Output: done
}
