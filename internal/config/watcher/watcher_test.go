package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func startWatcher(t *testing.T, path string) (*Watcher, chan Event) {
	t.Helper()
	w, err := New(WithDebounce(50 * time.Millisecond))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}
	events := make(chan Event, 16)
	w.OnChange(func(e Event) { events <- e })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return w, events
}

func waitEvent(t *testing.T, events chan Event) Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a change")
		return Event{}
	}
}

func TestWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("a = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, events := startWatcher(t, path)

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("a = 2"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	e := waitEvent(t, events)
	if e.Path != path {
		t.Errorf("Path = %q, want %q", e.Path, path)
	}
	select {
	case extra := <-events:
		t.Errorf("burst was not collapsed, extra event %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_DetectsCreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	_, events := startWatcher(t, path)

	if err := os.WriteFile(path, []byte("a = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if e := waitEvent(t, events); e.Path != path {
		t.Errorf("Path = %q, want %q", e.Path, path)
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	_, events := startWatcher(t, path)

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case e := <-events:
		t.Errorf("unexpected event %+v", e)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_HandlerPanicIsContained(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	w, events := startWatcher(t, path)
	w.OnChange(func(Event) { panic("boom") })

	for i := 0; i < 2; i++ {
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		waitEvent(t, events)
		time.Sleep(100 * time.Millisecond)
	}
}

func TestWatcher_WatchUnwatch(t *testing.T) {
	dir := t.TempDir()
	w, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer w.Close()

	a := filepath.Join(dir, "a.toml")
	b := filepath.Join(dir, "b.toml")
	if err := w.Watch(a); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(b); err != nil {
		t.Fatal(err)
	}
	if got := len(w.WatchedFiles()); got != 2 {
		t.Errorf("WatchedFiles() = %d, want 2", got)
	}
	if err := w.Unwatch(a); err != nil {
		t.Errorf("Unwatch(a) failed: %v", err)
	}
	if err := w.Unwatch(b); err != nil {
		t.Errorf("Unwatch(b) failed: %v", err)
	}
	if got := len(w.WatchedFiles()); got != 0 {
		t.Errorf("WatchedFiles() = %d, want 0", got)
	}

	w.Close()
	if err := w.Watch(a); !errors.Is(err, ErrClosed) {
		t.Errorf("Watch after Close = %v, want ErrClosed", err)
	}
}
