package shutdown

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdownRunsInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	for _, name := range []string{"store", "tracer", "http"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := m.Shutdown(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := strings.Join(order, ","); got != "http,tracer,store" {
		t.Errorf("Expected LIFO order, got %s", got)
	}
}

func TestShutdownJoinsErrors(t *testing.T) {
	m := New(time.Second, nil)
	sentinel := errors.New("close failed")
	m.Register("store", CloseResource(closerFunc(func() error { return sentinel })))
	m.Register("ok", func(context.Context) error { return nil })

	err := m.Shutdown()
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected joined sentinel, got %v", err)
	}
	if !strings.Contains(err.Error(), "store:") {
		t.Errorf("Expected step name in error, got %v", err)
	}
}

func TestShutdownPassesDeadline(t *testing.T) {
	m := New(50*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("Expected a deadline on the shutdown context")
		}
		return nil
	})
	_ = m.Shutdown()
}

func TestWaitWithContextReturnsOnCancel(t *testing.T) {
	m := New(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if sig := m.WaitWithContext(ctx); sig != nil {
		t.Errorf("Expected nil signal on cancelled context, got %v", sig)
	}
}
