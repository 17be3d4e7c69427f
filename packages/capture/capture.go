package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	ErrActive    = errors.New("capture already active")
	ErrNotActive = errors.New("capture not active")
)

// Option configures a Capturer
type Option func(*Capturer)

// WithTarget sets the file variable to redirect, os.Stdout by default
func WithTarget(target **os.File) Option {
	return func(c *Capturer) {
		c.target = target
	}
}

// WithPassthrough copies captured output to w as it arrives
func WithPassthrough(w io.Writer) Option {
	return func(c *Capturer) {
		c.passthrough = w
	}
}

// Capturer collects output written to a redirected file between Start and Stop
type Capturer struct {
	target      **os.File
	passthrough io.Writer

	mu     sync.Mutex
	saved  *os.File
	writer *os.File
	buf    bytes.Buffer
	done   chan struct{}
	active bool
}

// New creates a Capturer for os.Stdout unless WithTarget says otherwise
func New(opts ...Option) *Capturer {
	c := &Capturer{target: &os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins redirecting the target
func (c *Capturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return ErrActive
	}

	r, w, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create capture pipe: %w", err)
	}

	var dst io.Writer = &c.buf
	if c.passthrough != nil {
		dst = io.MultiWriter(&c.buf, c.passthrough)
	}

	c.buf.Reset()
	c.saved = *c.target
	c.writer = w
	c.done = make(chan struct{})
	*c.target = w
	c.active = true

	go func(done chan struct{}) {
		defer close(done)
		_, _ = io.Copy(dst, r)
		_ = r.Close()
	}(c.done)

	return nil
}

// Stop restores the target and returns the captured output
func (c *Capturer) Stop() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return "", ErrNotActive
	}

	*c.target = c.saved
	c.active = false
	err := c.writer.Close()
	<-c.done

	out := c.buf.String()
	c.buf.Reset()
	c.saved = nil
	c.writer = nil
	if err != nil {
		return out, fmt.Errorf("failed to close capture pipe: %w", err)
	}
	return out, nil
}

// Active reports whether output is currently being captured
func (c *Capturer) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Do captures os.Stdout while fn runs. The original stream is restored even
// when fn panics.
func Do(fn func()) (string, error) {
	c := New()
	if err := c.Start(); err != nil {
		return "", err
	}
	defer func() {
		if r := recover(); r != nil {
			_, _ = c.Stop()
			panic(r)
		}
	}()
	fn()
	return c.Stop()
}
