package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"
)

// recorder appends hook names in call order.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) hook(name string, err error) Hook {
	return func(context.Context) error {
		r.mu.Lock()
		r.order = append(r.order, name)
		r.mu.Unlock()
		return err
	}
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func TestHandler_ReverseOrder(t *testing.T) {
	h := NewHandler(time.Second, nil)
	rec := &recorder{}
	h.OnShutdown("store", rec.hook("store", nil))
	h.OnShutdown("janitor", rec.hook("janitor", nil))
	h.OnShutdown("server", rec.hook("server", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	got := rec.calls()
	want := []string{"server", "janitor", "store"}
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("calls = %v, want %v", got, want)
			break
		}
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done() should be closed after shutdown")
	}
}

func TestHandler_Wait_Signal(t *testing.T) {
	h := NewHandler(time.Second, nil)
	rec := &recorder{}
	h.OnShutdown("server", rec.hook("server", nil))

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	syscall.Kill(syscall.Getpid(), syscall.SIGINT)

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after SIGINT")
	}
	if len(rec.calls()) != 1 {
		t.Errorf("calls = %v", rec.calls())
	}
}

func TestHandler_HookErrors(t *testing.T) {
	h := NewHandler(time.Second, nil)
	rec := &recorder{}
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	h.OnShutdown("a", rec.hook("a", errA))
	h.OnShutdown("b", rec.hook("b", errB))
	h.OnShutdown("c", rec.hook("c", nil))

	err := h.Shutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Shutdown() error = %v, want both hook errors", err)
	}
	if len(rec.calls()) != 3 {
		t.Errorf("a failing hook must not stop the rest: %v", rec.calls())
	}
}

func TestHandler_ShutdownOnce(t *testing.T) {
	h := NewHandler(time.Second, nil)
	rec := &recorder{}
	h.OnShutdown("x", rec.hook("x", nil))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Shutdown()
		}()
	}
	wg.Wait()

	if n := len(rec.calls()); n != 1 {
		t.Errorf("hook ran %d times, want 1", n)
	}
}

func TestHandler_Timeout(t *testing.T) {
	h := NewHandler(50*time.Millisecond, nil)
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := h.Shutdown()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout not applied")
	}
}
