package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// File is one rendered report
type File struct {
	Name    string
	Content []byte
}

// Sink stores rendered files
type Sink interface {
	Write(f File) error
}

// Dir writes files below Path
type Dir struct {
	Path string
}

// NewDir creates a Dir sink. An empty path means the working directory.
func NewDir(path string) *Dir {
	return &Dir{Path: path}
}

func (d *Dir) Write(f File) error {
	dir := d.Path
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, f.Name)
	if err := os.WriteFile(path, f.Content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Memory collects files in memory. Writing the same name twice replaces the
// earlier content.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
	order []string
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

func (m *Memory) Write(f File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[f.Name]; !ok {
		m.order = append(m.order, f.Name)
	}
	m.files[f.Name] = append([]byte(nil), f.Content...)
	return nil
}

// Names returns file names in first-write order
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// SortedNames returns file names in lexical order
func (m *Memory) SortedNames() []string {
	names := m.Names()
	sort.Strings(names)
	return names
}

// Get returns the content written under name
func (m *Memory) Get(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[name]
	return string(content), ok
}

// Len returns the number of distinct files
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Writer streams file contents to W, one after another
type Writer struct {
	W io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{W: w}
}

func (w *Writer) Write(f File) error {
	if _, err := w.W.Write(f.Content); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Name, err)
	}
	return nil
}

// WriteAll writes every file to s. A failed file is logged and skipped; the
// failures are returned joined.
func WriteAll(s Sink, files []File, log *logrus.Entry) error {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	var errs []error
	for _, f := range files {
		if err := s.Write(f); err != nil {
			log.WithError(err).WithField("file", f.Name).Error("failed to write report file")
			errs = append(errs, err)
			continue
		}
		log.WithField("file", f.Name).WithField("bytes", len(f.Content)).Debug("report file written")
	}
	return errors.Join(errs...)
}
