// Package failurelog records submissions that failed to grade as JSON lines
// in size-rotated files.
package failurelog

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultPath          = "logs/failed_submissions.jsonl"
	DefaultMaxSizeMB     = 10
	DefaultMaxBackups    = 30
	DefaultBufferSize    = 100
	DefaultFlushInterval = 5 * time.Second
)

// Config controls the rotated file and the in-memory buffer.
type Config struct {
	Path          string
	MaxSizeMB     int
	MaxBackups    int
	MaxAgeDays    int
	Compress      bool
	BufferSize    int
	FlushInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = DefaultMaxSizeMB
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = DefaultMaxBackups
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
}

// Entry is one failed grading.
type Entry struct {
	Timestamp  time.Time      `json:"timestamp"`
	QuestionID string         `json:"question_id"`
	UserCode   string         `json:"user_code"`
	Error      string         `json:"error"`
	Context    map[string]any `json:"context,omitempty"`
}

// Logger buffers entries and writes them from a background goroutine.
// Log never blocks: when the buffer is full the entry is dropped.
type Logger struct {
	out      io.WriteCloser
	entries  chan Entry
	interval time.Duration
	batch    int
	logger   *zap.Logger
	now      func() time.Time
	onDrop   func()

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// New opens a rotated log file described by cfg.
func New(cfg Config, logger *zap.Logger) *Logger {
	cfg.applyDefaults()
	out := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return NewWithWriter(out, cfg, logger)
}

// NewWithWriter writes entries to out instead of a rotated file.
func NewWithWriter(out io.WriteCloser, cfg Config, logger *zap.Logger) *Logger {
	cfg.applyDefaults()
	l := &Logger{
		out:      out,
		entries:  make(chan Entry, cfg.BufferSize),
		interval: cfg.FlushInterval,
		batch:    cfg.BufferSize,
		logger:   logger,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go l.run()
	return l
}

// OnDrop registers a callback invoked for every dropped entry.
func (l *Logger) OnDrop(fn func()) {
	l.onDrop = fn
}

// Log enqueues an entry. A zero timestamp is set to the current UTC time.
func (l *Logger) Log(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.drop(e, "logger closed")
		return
	}
	select {
	case l.entries <- e:
	default:
		l.drop(e, "buffer full")
	}
}

func (l *Logger) drop(e Entry, reason string) {
	l.logger.Warn("Failure log entry dropped",
		zap.String("reason", reason),
		zap.String("question_id", e.QuestionID))
	if l.onDrop != nil {
		l.onDrop()
	}
}

// Close stops accepting entries, writes everything still buffered and closes
// the file.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return nil
	}
	l.closed = true
	close(l.entries)
	l.mu.Unlock()

	<-l.done
	return l.out.Close()
}

func (l *Logger) run() {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	pending := make([]Entry, 0, l.batch)
	for {
		select {
		case e, ok := <-l.entries:
			if !ok {
				l.write(pending)
				return
			}
			pending = append(pending, e)
			if len(pending) >= l.batch {
				l.write(pending)
				pending = pending[:0]
			}
		case <-ticker.C:
			if len(pending) > 0 {
				l.write(pending)
				pending = pending[:0]
			}
		}
	}
}

func (l *Logger) write(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	enc := json.NewEncoder(l.out)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			l.logger.Error("Failed to write failure log entry",
				zap.String("question_id", e.QuestionID), zap.Error(err))
		}
	}
}
