// Package diag collects non-fatal diagnostics produced while a document is
// recalculated. A Collector is created per call and handed back to the caller
// with the result; nothing is buffered process-wide.
package diag

import (
	"context"
	"fmt"
	"sync"

	"factura/pkg/logger"
)

// Level is the severity of a diagnostic entry.
type Level string

const (
	LevelNotice   Level = "notice"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
	LevelAlert    Level = "alert"
	LevelCritical Level = "critical"
)

// Entry is a single diagnostic.
type Entry struct {
	Level   Level          `json:"level"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// Collector accumulates entries. The zero value is ready to use.
// A nil *Collector discards everything, so components can accept one optionally.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) add(level Level, msg string, kv []any) {
	if c == nil {
		return
	}
	e := Entry{Level: level, Message: msg}
	if len(kv) > 0 {
		e.Context = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Context[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
}

func (c *Collector) Notice(msg string, kv ...any)   { c.add(LevelNotice, msg, kv) }
func (c *Collector) Warning(msg string, kv ...any)  { c.add(LevelWarning, msg, kv) }
func (c *Collector) Error(msg string, kv ...any)    { c.add(LevelError, msg, kv) }
func (c *Collector) Alert(msg string, kv ...any)    { c.add(LevelAlert, msg, kv) }
func (c *Collector) Critical(msg string, kv ...any) { c.add(LevelCritical, msg, kv) }

// Entries returns a copy of the collected entries in insertion order.
func (c *Collector) Entries() []Entry {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Has reports whether at least one entry of the given level was recorded.
func (c *Collector) Has(level Level) bool {
	for _, e := range c.Entries() {
		if e.Level == level {
			return true
		}
	}
	return false
}

// Len returns the number of collected entries.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush writes every entry to the request logger. Notice maps to info,
// warning to warn, the rest to error.
func Flush(ctx context.Context, entries []Entry) {
	for _, e := range entries {
		kv := make([]any, 0, len(e.Context)*2+2)
		kv = append(kv, "diag_level", string(e.Level))
		for k, v := range e.Context {
			kv = append(kv, k, v)
		}
		switch e.Level {
		case LevelNotice:
			logger.Info(ctx, e.Message, kv...)
		case LevelWarning:
			logger.Warn(ctx, e.Message, kv...)
		default:
			logger.Error(ctx, e.Message, kv...)
		}
	}
}
