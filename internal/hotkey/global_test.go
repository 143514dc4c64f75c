package hotkey

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

// fakeGrabber 记录注册过的热键，并允许测试模拟按下
type fakeGrabber struct {
	mu     sync.Mutex
	active map[string]chan struct{}
	fail   map[string]bool
}

func newFakeGrabber(fail ...string) *fakeGrabber {
	g := &fakeGrabber{
		active: make(map[string]chan struct{}),
		fail:   make(map[string]bool),
	}
	for _, k := range fail {
		g.fail[k] = true
	}
	return g
}

func (g *fakeGrabber) grab(name string) (<-chan struct{}, func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail[name] {
		return nil, nil, errors.New("grab refused")
	}
	ch := make(chan struct{})
	g.active[name] = ch
	return ch, func() {
		g.mu.Lock()
		delete(g.active, name)
		g.mu.Unlock()
	}, nil
}

func (g *fakeGrabber) down(t *testing.T, name string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		g.mu.Lock()
		ch, ok := g.active[name]
		g.mu.Unlock()
		if ok {
			ch <- struct{}{}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s was never registered", name)
}

func (g *fakeGrabber) activeKeys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var keys []string
	for k := range g.active {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func nextKey(t *testing.T, d *Dispatcher) string {
	t.Helper()
	select {
	case k := <-d.keys:
		return k
	case <-time.After(2 * time.Second):
		t.Fatal("no key reached the dispatcher")
		return ""
	}
}

func TestListenGlobal_ForwardsKeys(t *testing.T) {
	d := NewDispatcher(Bindings{Backup: "f5", Restore: "f8", Exit: "f12"}, &fakeOperator{})
	g := newFakeGrabber()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listenGlobal(ctx, d, g.grab) }()

	g.down(t, "f8")
	if got := nextKey(t, d); got != "f8" {
		t.Errorf("dispatcher got %q, want f8", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("listenGlobal() error = %v", err)
	}
	if keys := g.activeKeys(); len(keys) != 0 {
		t.Errorf("keys still registered after shutdown: %v", keys)
	}
}

func TestListenGlobal_ReregistersOnSetBindings(t *testing.T) {
	d := NewDispatcher(Bindings{Backup: "f5", Restore: "f8", Exit: "f12"}, &fakeOperator{})
	g := newFakeGrabber()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listenGlobal(ctx, d, g.grab)

	g.down(t, "f5")
	nextKey(t, d)

	d.SetBindings(Bindings{Backup: "f6", Restore: "f8", Exit: "f12"})
	g.down(t, "f6")
	if got := nextKey(t, d); got != "f6" {
		t.Errorf("dispatcher got %q, want f6", got)
	}
	g.down(t, "f12")
	nextKey(t, d)

	want := []string{"f12", "f6", "f8"}
	if got := g.activeKeys(); !slices.Equal(got, want) {
		t.Errorf("registered = %v, want %v", got, want)
	}
}

func TestListenGlobal_NothingRegistered(t *testing.T) {
	d := NewDispatcher(Bindings{Backup: "f5", Restore: "f8", Exit: "f12"}, &fakeOperator{})
	g := newFakeGrabber("f5", "f8", "f12")

	err := listenGlobal(context.Background(), d, g.grab)
	if err == nil {
		t.Fatal("listenGlobal() should fail when no key can be registered")
	}
}

func TestListenGlobal_PartialFailureKeepsOthers(t *testing.T) {
	d := NewDispatcher(Bindings{Backup: "f5", Restore: "f8", Exit: "f12"}, &fakeOperator{})
	g := newFakeGrabber("f8")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listenGlobal(ctx, d, g.grab)

	g.down(t, "f12")
	if got := nextKey(t, d); got != "f12" {
		t.Errorf("dispatcher got %q, want f12", got)
	}
}
