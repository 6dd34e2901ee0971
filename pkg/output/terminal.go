package output

import (
	"fmt"
	"io"
	"sync"
)

// Terminal renders buffered display lines to a writer. One mutex guards every
// write, so a buffer flush is a single atomic block of lines regardless of
// how many tasks finish at once. This serialization point is deliberate.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

// NewTerminal creates a terminal writing to w. Debug lines are dropped unless
// verbose is set.
func NewTerminal(w io.Writer, verbose bool) *Terminal {
	return &Terminal{w: w, verbose: verbose}
}

// Flush replays a task's buffered lines as one atomic block. Flush order
// across tasks is completion order, not declaration order.
func (t *Terminal) Flush(b *Buffer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, line := range b.Lines() {
		t.write(line)
	}
}

// Stagef writes an immediate stage line, outside any task buffer.
func (t *Terminal) Stagef(format string, args ...any) {
	t.direct(KindStage, fmt.Sprintf(format, args...))
}

// Infof writes an immediate info line, outside any task buffer.
func (t *Terminal) Infof(format string, args ...any) {
	t.direct(KindInfo, fmt.Sprintf(format, args...))
}

// Warnf writes an immediate warning line, outside any task buffer.
func (t *Terminal) Warnf(format string, args ...any) {
	t.direct(KindWarn, fmt.Sprintf(format, args...))
}

// Errorf writes an immediate error line, outside any task buffer.
func (t *Terminal) Errorf(format string, args ...any) {
	t.direct(KindError, fmt.Sprintf(format, args...))
}

func (t *Terminal) direct(kind Kind, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.write(Line{Kind: kind, Text: text})
}

func (t *Terminal) write(line Line) {
	switch line.Kind {
	case KindStage:
		fmt.Fprintf(t.w, "==> %s\n", line.Text)
	case KindDebug:
		if t.verbose {
			fmt.Fprintf(t.w, "    %s\n", line.Text)
		}
	case KindWarn:
		fmt.Fprintf(t.w, "    warning: %s\n", line.Text)
	case KindError:
		fmt.Fprintf(t.w, "    error: %s\n", line.Text)
	case KindDryRun:
		fmt.Fprintf(t.w, "    %s\n", line.Text)
	default:
		fmt.Fprintf(t.w, "    %s\n", line.Text)
	}
}
