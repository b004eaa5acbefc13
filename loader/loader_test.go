package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	maskruntime "github.com/wippyai/mask-runtime"
	"github.com/wippyai/mask-runtime/options"
)

// fakeEngine is a minimal Engine for loader tests.
type fakeEngine struct{ id int }

func (f *fakeEngine) NewBinding(ctx context.Context, opts *options.Value) (maskruntime.Binding, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeEngine) Close(ctx context.Context) error { return nil }

func TestEnsureLoaded_SingleFlight(t *testing.T) {
	var loads atomic.Int32
	release := make(chan struct{})

	l := New(func(ctx context.Context) (maskruntime.Engine, error) {
		loads.Add(1)
		<-release
		return &fakeEngine{id: 1}, nil
	})

	const callers = 16
	engines := make([]maskruntime.Engine, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			eng, err := l.EnsureLoaded(context.Background())
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			engines[i] = eng
		}(i)
	}

	// Give every caller a chance to join the in-flight load.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Fatalf("load ran %d times, want 1", got)
	}
	for i := 1; i < callers; i++ {
		if engines[i] != engines[0] {
			t.Fatalf("caller %d got a different engine reference", i)
		}
	}
}

func TestEnsureLoaded_CachesAcrossCalls(t *testing.T) {
	var loads atomic.Int32
	l := New(func(ctx context.Context) (maskruntime.Engine, error) {
		loads.Add(1)
		return &fakeEngine{}, nil
	})

	for range 3 {
		if _, err := l.EnsureLoaded(context.Background()); err != nil {
			t.Fatalf("EnsureLoaded: %v", err)
		}
	}
	if got := loads.Load(); got != 1 {
		t.Fatalf("load ran %d times, want 1", got)
	}
	if !l.Loaded() {
		t.Fatal("Loaded() = false after success")
	}
}

func TestEnsureLoaded_RetryAfterFailure(t *testing.T) {
	var loads atomic.Int32
	boom := errors.New("engine unreachable")

	l := New(func(ctx context.Context) (maskruntime.Engine, error) {
		if loads.Add(1) == 1 {
			return nil, boom
		}
		return &fakeEngine{}, nil
	})

	if _, err := l.EnsureLoaded(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("first attempt err = %v, want %v", err, boom)
	}
	if l.Loaded() {
		t.Fatal("Loaded() = true after failure")
	}

	eng, err := l.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if eng == nil {
		t.Fatal("retry returned nil engine")
	}
	if got := loads.Load(); got != 2 {
		t.Fatalf("load ran %d times, want 2", got)
	}
}

func TestEnsureLoaded_SharedFailure(t *testing.T) {
	boom := errors.New("fetch failed")
	release := make(chan struct{})

	l := New(func(ctx context.Context) (maskruntime.Engine, error) {
		<-release
		return nil, boom
	})

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.EnsureLoaded(context.Background())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, boom) {
			t.Errorf("caller %d err = %v, want %v", i, err, boom)
		}
	}
}

func TestEnsureLoaded_WaiterCancellation(t *testing.T) {
	release := make(chan struct{})
	l := New(func(ctx context.Context) (maskruntime.Engine, error) {
		<-release
		return &fakeEngine{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := l.EnsureLoaded(ctx)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	// The shared load was not cancelled; a fresh caller still gets it.
	close(release)
	if _, err := l.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("load after waiter cancellation: %v", err)
	}
}

func TestEnsureLoaded_NoLoadFunc(t *testing.T) {
	l := New(nil)
	if _, err := l.EnsureLoaded(context.Background()); err == nil {
		t.Fatal("expected error when no load function is configured")
	}
}
