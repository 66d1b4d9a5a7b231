package voice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultListenTimeout bounds a single ListenOnce call.
const DefaultListenTimeout = 10 * time.Second

// Console speaks by writing lines to an io.Writer and listens by reading
// lines from an io.Reader. It stands in for a speech engine in terminals
// and tests.
type Console struct {
	in      *bufio.Scanner
	out     io.Writer
	speaker string
	timeout time.Duration
	logger  *zap.Logger

	once  sync.Once
	lines chan string

	mu sync.Mutex // guards out
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithListenTimeout sets how long ListenOnce waits. Zero waits until ctx
// is done.
func WithListenTimeout(d time.Duration) ConsoleOption {
	return func(c *Console) {
		c.timeout = d
	}
}

// WithSpeakerName prefixes spoken lines with name.
func WithSpeakerName(name string) ConsoleOption {
	return func(c *Console) {
		c.speaker = name
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ConsoleOption {
	return func(c *Console) {
		c.logger = l
	}
}

// NewConsole creates a Console over in and out.
func NewConsole(in io.Reader, out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		in:      bufio.NewScanner(in),
		out:     out,
		timeout: DefaultListenTimeout,
		logger:  zap.NewNop(),
		lines:   make(chan string, 16),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Speak writes text as one line.
func (c *Console) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	line := text
	if c.speaker != "" {
		line = c.speaker + ": " + text
	}
	if _, err := fmt.Fprintln(c.out, line); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

// ListenOnce returns the next non-blank input line.
func (c *Console) ListenOnce(ctx context.Context) (string, error) {
	c.once.Do(func() { go c.readLoop() })

	var timeout <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", ErrInputClosed
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return "", ErrNoInput
		}
		c.logger.Debug("heard", zap.String("text", line))
		return line, nil
	case <-timeout:
		return "", ErrNoInput
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ListenContinuous feeds every heard line to fn. Silence is skipped; the
// loop ends with nil when the input closes.
func (c *Console) ListenContinuous(ctx context.Context, fn func(text string)) error {
	for {
		text, err := c.ListenOnce(ctx)
		switch {
		case err == nil:
			fn(text)
		case errors.Is(err, ErrNoInput):
			continue
		case errors.Is(err, ErrInputClosed):
			return nil
		default:
			return err
		}
	}
}

func (c *Console) readLoop() {
	defer close(c.lines)
	for c.in.Scan() {
		c.lines <- c.in.Text()
	}
	if err := c.in.Err(); err != nil {
		c.logger.Warn("console input failed", zap.Error(err))
	}
}
