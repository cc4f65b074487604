package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

func startWatcher(t *testing.T, opts Options) (<-chan string, context.CancelFunc) {
	t.Helper()
	reasons := make(chan string, 32)
	w, err := New(opts, func(_ context.Context, reason string) error {
		reasons <- reason
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	require.Equal(t, ReasonStartup, next(t, reasons))
	return reasons, cancel
}

func next(t *testing.T, reasons <-chan string) string {
	t.Helper()
	select {
	case r := <-reasons:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no run triggered")
		return ""
	}
}

func TestWatcher_DebouncesChanges(t *testing.T) {
	docs := t.TempDir()
	reasons, _ := startWatcher(t, Options{Dirs: []string{docs}, Debounce: 100 * time.Millisecond})

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(docs, name), []byte("x"), 0o600))
	}
	assert.Equal(t, ReasonChange, next(t, reasons))

	select {
	case r := <-reasons:
		t.Fatalf("unexpected extra run %q", r)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	docs := t.TempDir()
	reasons, _ := startWatcher(t, Options{Dirs: []string{docs}, Debounce: 50 * time.Millisecond})

	sub := filepath.Join(docs, "guides")
	require.NoError(t, os.Mkdir(sub, 0o755))
	assert.Equal(t, ReasonChange, next(t, reasons))

	require.NoError(t, os.WriteFile(filepath.Join(sub, "one.md"), []byte("x"), 0o600))
	assert.Equal(t, ReasonChange, next(t, reasons))
}

func TestWatcher_WatchedFile(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "mkdocs.yml")
	require.NoError(t, os.WriteFile(project, []byte("site_name: a\n"), 0o600))
	reasons, _ := startWatcher(t, Options{Files: []string{project}, Debounce: 50 * time.Millisecond})

	// Siblings of a watched file do not trigger.
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o600))
	select {
	case r := <-reasons:
		t.Fatalf("unexpected run %q", r)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(project, []byte("site_name: b\n"), 0o600))
	assert.Equal(t, ReasonChange, next(t, reasons))
}

func TestWatcher_Schedule(t *testing.T) {
	reasons, _ := startWatcher(t, Options{Dirs: []string{t.TempDir()}, Debounce: time.Second, Every: 100 * time.Millisecond})
	assert.Equal(t, ReasonSchedule, next(t, reasons))
	assert.Equal(t, ReasonSchedule, next(t, reasons))
}

func TestWatcher_RunErrorsKeepWatching(t *testing.T) {
	docs := t.TempDir()
	calls := make(chan string, 8)
	w, err := New(Options{Dirs: []string{docs}, Debounce: 50 * time.Millisecond}, func(_ context.Context, reason string) error {
		calls <- reason
		return errors.RemoteError("boom").Build()
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	assert.Equal(t, ReasonStartup, next(t, calls))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "a.md"), []byte("x"), 0o600))
	assert.Equal(t, ReasonChange, next(t, calls))
}

func TestNew_Validation(t *testing.T) {
	noop := func(context.Context, string) error { return nil }

	_, err := New(Options{Debounce: time.Second}, nil)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = New(Options{}, noop)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = New(Options{Debounce: time.Second, Every: -time.Second}, noop)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestRelevant(t *testing.T) {
	w, err := New(Options{
		Dirs:     []string{"/docs"},
		Files:    []string{"/proj/mkdocs.yml"},
		Debounce: time.Second,
	}, func(context.Context, string) error { return nil })
	require.NoError(t, err)

	cases := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/docs/a.md", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/docs/sub/img.png", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/docs/a.md", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/docs/.a.md.swp", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/docs/a.md~", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/docsother/a.md", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/proj/mkdocs.yml", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "/proj/other.yml", Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, w.relevant(tc.ev), tc.ev.String())
	}
}
