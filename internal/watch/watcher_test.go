package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects handled paths
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) count(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.paths {
		if p == path {
			n++
		}
	}
	return n
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func startWatcher(t *testing.T, cfg Config, rec *recorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	w := New(cfg, rec.handle, nil)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not become ready")
	}

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(50*time.Millisecond, rec.handle)

	for i := 0; i < 5; i++ {
		d.Trigger("a.txt")
	}
	d.Trigger("b.txt")
	assert.Equal(t, 2, d.Pending())

	assert.Eventually(t, func() bool { return rec.total() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, rec.count("a.txt"))
	assert.Zero(t, d.Pending())
}

func TestDebouncer_Stop(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(50*time.Millisecond, rec.handle)

	d.Trigger("a.txt")
	d.Stop()
	assert.Zero(t, d.Pending())

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, rec.total())
}

func TestDebouncer_SupersededTimer(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(200*time.Millisecond, rec.handle)

	d.Trigger("a.txt")
	d.mu.Lock()
	old := d.timers["a.txt"]
	d.mu.Unlock()
	d.Trigger("a.txt")

	// the replaced timer fires late, after Stop could no longer cancel it
	d.fire("a.txt", old)
	assert.Equal(t, 1, d.Pending())
	assert.Zero(t, rec.total())

	assert.Eventually(t, func() bool { return rec.total() == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, d.Pending())

	d.Trigger("b.txt")
	d.mu.Lock()
	stale := d.timers["b.txt"]
	d.mu.Unlock()
	d.Stop()
	d.fire("b.txt", stale)
	assert.Zero(t, rec.count("b.txt"))
}

func TestWatcher_NewFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, Config{Root: dir, Debounce: 50 * time.Millisecond}, rec)

	target := filepath.Join(dir, "interview.txt")
	require.NoError(t, os.WriteFile(target, []byte("张三：你好\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.doc"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$interview.txt"), []byte("x"), 0644))

	assert.Eventually(t, func() bool { return rec.count(target) == 1 }, 5*time.Second, 20*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, rec.total(), "unsupported and temporary files are not handled")
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, Config{Root: dir, Debounce: 50 * time.Millisecond}, rec)

	sub := filepath.Join(dir, "round2")
	require.NoError(t, os.Mkdir(sub, 0755))
	target := filepath.Join(sub, "b.md")
	require.NoError(t, os.WriteFile(target, []byte("李四：回答\n"), 0644))

	assert.Eventually(t, func() bool { return rec.count(target) >= 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_ScanExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "old.txt")
	require.NoError(t, os.WriteFile(existing, []byte("王五：旧文件\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "x.txt"), []byte("x"), 0644))

	rec := &recorder{}
	startWatcher(t, Config{Root: dir, Debounce: 20 * time.Millisecond, Ignore: []string{".git"}, ScanExisting: true}, rec)

	assert.Eventually(t, func() bool { return rec.count(existing) == 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, rec.total())
}

func TestWatcher_InvalidRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	w := New(Config{Root: file}, func(string) {}, nil)
	assert.Error(t, w.Run(context.Background()))

	w = New(Config{Root: filepath.Join(t.TempDir(), "missing")}, func(string) {}, nil)
	assert.Error(t, w.Run(context.Background()))
}
