// Package output implements the human-readable display stream for engine
// runs. Each task writes to its own buffer; a shared terminal flushes whole
// buffers atomically so lines from concurrently finishing tasks never
// interleave.
package output

import (
	"fmt"
	"sync"
)

// Kind classifies a display line.
type Kind int

const (
	// KindStage announces a task or phase.
	KindStage Kind = iota

	// KindInfo is a normal progress line.
	KindInfo

	// KindDebug is a verbose-only line.
	KindDebug

	// KindWarn is a non-fatal problem.
	KindWarn

	// KindError is a failure line.
	KindError

	// KindDryRun is a preview line describing a change that was not made.
	KindDryRun
)

// Line is one recorded display line.
type Line struct {
	Kind Kind
	Text string
}

// Sink receives display lines. Tasks write through this interface so the same
// body works with a live terminal or a replayed buffer.
type Sink interface {
	Stage(msg string)
	Info(msg string)
	Infof(format string, args ...any)
	Debug(msg string)
	Debugf(format string, args ...any)
	Warn(msg string)
	Warnf(format string, args ...any)
	Error(msg string)
	Errorf(format string, args ...any)
	DryRun(msg string)
	DryRunf(format string, args ...any)
}

// Buffer records display lines for one task. It lives only for the duration
// of that task's execution. Writes are locked because a task may fan its
// reconciliation work out over several goroutines that share the buffer.
type Buffer struct {
	mu    sync.Mutex
	lines []Line
}

// NewBuffer creates an empty per-task buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Lines returns the recorded lines in write order.
func (b *Buffer) Lines() []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *Buffer) append(kind Kind, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, Line{Kind: kind, Text: text})
}

// Stage implements Sink.
func (b *Buffer) Stage(msg string) { b.append(KindStage, msg) }

// Info implements Sink.
func (b *Buffer) Info(msg string) { b.append(KindInfo, msg) }

// Infof implements Sink.
func (b *Buffer) Infof(format string, args ...any) {
	b.append(KindInfo, fmt.Sprintf(format, args...))
}

// Debug implements Sink.
func (b *Buffer) Debug(msg string) { b.append(KindDebug, msg) }

// Debugf implements Sink.
func (b *Buffer) Debugf(format string, args ...any) {
	b.append(KindDebug, fmt.Sprintf(format, args...))
}

// Warn implements Sink.
func (b *Buffer) Warn(msg string) { b.append(KindWarn, msg) }

// Warnf implements Sink.
func (b *Buffer) Warnf(format string, args ...any) {
	b.append(KindWarn, fmt.Sprintf(format, args...))
}

// Error implements Sink.
func (b *Buffer) Error(msg string) { b.append(KindError, msg) }

// Errorf implements Sink.
func (b *Buffer) Errorf(format string, args ...any) {
	b.append(KindError, fmt.Sprintf(format, args...))
}

// DryRun implements Sink.
func (b *Buffer) DryRun(msg string) { b.append(KindDryRun, msg) }

// DryRunf implements Sink.
func (b *Buffer) DryRunf(format string, args ...any) {
	b.append(KindDryRun, fmt.Sprintf(format, args...))
}
