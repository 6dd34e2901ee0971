package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestBuffer_RecordsLinesInOrder(t *testing.T) {
	b := NewBuffer()
	b.Stage("links")
	b.Infof("linked %d files", 3)
	b.Warn("one target occupied")
	b.DryRun("would link ~/.vimrc")

	lines := b.Lines()
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d", len(lines))
	}
	if lines[0].Kind != KindStage || lines[0].Text != "links" {
		t.Errorf("Unexpected first line: %+v", lines[0])
	}
	if lines[1].Text != "linked 3 files" {
		t.Errorf("Unexpected formatted line: %+v", lines[1])
	}
	if lines[3].Kind != KindDryRun {
		t.Errorf("Expected dry-run kind, got %+v", lines[3])
	}
}

func TestBuffer_ConcurrentWrites(t *testing.T) {
	b := NewBuffer()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Info("line")
		}()
	}
	wg.Wait()

	if got := len(b.Lines()); got != 100 {
		t.Errorf("Expected 100 lines, got %d", got)
	}
}

func TestTerminal_Rendering(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, false)

	b := NewBuffer()
	b.Stage("permissions")
	b.Info("set 0600 on ~/.ssh/config")
	b.Warn("skipping /etc/hosts")
	b.Error("chmod failed")
	b.Debug("considering 4 declarations")
	term.Flush(b)

	got := out.String()
	want := "==> permissions\n" +
		"    set 0600 on ~/.ssh/config\n" +
		"    warning: skipping /etc/hosts\n" +
		"    error: chmod failed\n"
	if got != want {
		t.Errorf("Unexpected rendering:\n%q\nwant:\n%q", got, want)
	}
}

func TestTerminal_VerboseKeepsDebugLines(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, true)

	b := NewBuffer()
	b.Debug("considering 4 declarations")
	term.Flush(b)

	if !strings.Contains(out.String(), "considering 4 declarations") {
		t.Errorf("Expected debug line in verbose mode, got %q", out.String())
	}
}

func TestTerminal_FlushIsAtomic(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, false)

	var wg sync.WaitGroup
	for _, name := range []string{"alpha", "beta", "gamma"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			b := NewBuffer()
			b.Info(name + " one")
			b.Info(name + " two")
			term.Flush(b)
		}(name)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("Expected 6 lines, got %d", len(lines))
	}
	for i := 0; i < len(lines); i += 2 {
		first := strings.Fields(lines[i])[0]
		second := strings.Fields(lines[i+1])[0]
		if first != second {
			t.Fatalf("Flush interleaved:\n%s", out.String())
		}
	}
}
