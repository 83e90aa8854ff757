package probe

import (
	"context"
	"errors"
	"testing"
	"time"
)

func startTestSession(t *testing.T, script string) *Session {
	t.Helper()
	s, err := Start(context.Background(), []string{"sh", "-c", script}, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSendAssignsSequentialIDs(t *testing.T) {
	s := startTestSession(t, "cat >/dev/null")
	for want := int64(1); want <= 3; want++ {
		id, err := s.Send("ping", map[string]any{})
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if id != want {
			t.Fatalf("expected id %d, got %d", want, id)
		}
	}
}

func TestReadResponseTimeout(t *testing.T) {
	s := startTestSession(t, "cat >/dev/null")
	start := time.Now()
	_, err := s.ReadResponse(100 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout took too long")
	}
}

func TestReadResponseStreamClosed(t *testing.T) {
	s := startTestSession(t, "exit 0")
	_, err := s.ReadResponse(2 * time.Second)
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := startTestSession(t, "cat >/dev/null")
	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestCloseAfterChildExit(t *testing.T) {
	s := startTestSession(t, "exit 0")
	// Drain the EOF so the child has certainly finished its output.
	if _, err := s.ReadResponse(2 * time.Second); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close after exit: %v", err)
	}
}

func TestNewRunIDUnique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Fatalf("expected distinct run ids, got %s twice", a)
	}
	if len(a) != 26 {
		t.Fatalf("unexpected ulid length: %q", a)
	}
}
