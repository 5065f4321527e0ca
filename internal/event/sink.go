package event

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
)

// FileSink appends notifications to a JSONL file.
// It is thread-safe and append-only; each notification is flushed as soon as
// it is written since the engine produces at most a handful per hour.
type FileSink struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewFileSink creates a FileSink that writes to the specified file path.
// The file is created if it doesn't exist, or appended to if it does.
func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open notification file: %w", err)
	}

	return &FileSink{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
	}, nil
}

// Publish writes a single notification as one JSON line.
func (s *FileSink) Publish(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := n.MarshalJSONL()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if _, err := s.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush notification: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// Path returns the file path of the sink.
func (s *FileSink) Path() string {
	return s.path
}
