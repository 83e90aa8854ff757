package probe

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	mathrand "math/rand"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rexliu/mcprobe/pkg/jsonrpc"
)

var (
	// ErrClosed indicates the peer closed its output stream.
	ErrClosed = errors.New("stream closed")
	// ErrTimeout indicates no response line arrived before the deadline.
	ErrTimeout = errors.New("response timeout")
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewRunID generates a ULID string for smoke runs.
func NewRunID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Session owns one child server process and the line transport over its
// stdio. The correlation-ID counter lives here; IDs are handed out
// sequentially starting at 1 and never reused within a session.
type Session struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writer *bufio.Writer
	lines  chan readEvent
	nextID int64

	mu     sync.Mutex
	closed bool
}

type readEvent struct {
	line string
	err  error
}

// Start launches command in dir with all three streams redirected. A spawn
// failure here is the only hard failure of a smoke run.
func Start(ctx context.Context, command []string, dir string) (*Session, error) {
	if len(command) == 0 {
		return nil, errors.New("empty server command")
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Stderr = io.Discard
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", command[0], err)
	}
	s := &Session{
		cmd:    cmd,
		stdin:  stdin,
		writer: bufio.NewWriter(stdin),
		lines:  make(chan readEvent, 8),
	}
	go s.pump(stdout)
	return s, nil
}

// pump moves stdout lines onto the channel so reads can carry a deadline.
func (s *Session) pump(stdout io.Reader) {
	r := bufio.NewReader(stdout)
	for {
		line, err := jsonrpc.ReadLine(r)
		if err != nil {
			s.lines <- readEvent{err: ErrClosed}
			return
		}
		s.lines <- readEvent{line: line}
	}
}

// Send writes one request line for method and returns its correlation ID.
// The ID is consumed even when the write fails, keeping the sequence
// strictly increasing.
func (s *Session) Send(method string, params any) (int64, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return 0, err
	}
	s.nextID++
	id := s.nextID
	req := jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: id, Method: method, Params: raw}
	if err := jsonrpc.WriteMessage(s.writer, req); err != nil {
		return id, err
	}
	return id, nil
}

// ReadResponse blocks for the next response line, at most timeout. Expiry
// returns ErrTimeout; a closed stream returns ErrClosed.
func (s *Session) ReadResponse(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case next := <-s.lines:
		return next.line, next.err
	case <-timer.C:
		return "", ErrTimeout
	}
}

// Close terminates the child and waits for it to exit, so no orphan survives
// any exit path. Idempotent, and safe after the process has already exited.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.stdin.Close()
	if s.cmd.Process != nil {
		if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			_ = s.cmd.Process.Kill()
		}
	}
	_ = s.cmd.Wait()
	return nil
}
