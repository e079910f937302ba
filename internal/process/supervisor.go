// internal/process/supervisor.go
package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// portMarker is the stdout line prefix the indexing backend prints once its
// HTTP server is listening.
const portMarker = "COCOA_BACKEND_PORT:"

// StateListener is notified of backend lifecycle transitions.
type StateListener interface {
	BackendStateChanged(state string, pid int)
}

// Supervisor owns the indexing backend process: it spawns it, scans its
// stdout for the port announcement, and shuts it down gracefully. It does
// not restart a crashed backend on its own; the app decides that.
type Supervisor struct {
	ctx      context.Context
	command  []string
	listener StateListener

	mu      sync.Mutex
	current *Process
	port    int
	portCh  chan int
}

// NewSupervisor creates a supervisor for the given backend command line.
func NewSupervisor(ctx context.Context, command []string, listener StateListener) *Supervisor {
	return &Supervisor{
		ctx:      ctx,
		command:  command,
		listener: listener,
	}
}

// Start spawns the backend and returns once the process is running. The
// announced port becomes available through WaitForPort.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.IsRunning() {
		return fmt.Errorf("backend already running (pid %d)", s.current.PID)
	}
	if len(s.command) == 0 {
		return fmt.Errorf("no backend command configured")
	}

	cmd := exec.CommandContext(s.ctx, s.command[0], s.command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	proc := NewProcess("indexing-backend", cmd)
	if err := proc.Start(); err != nil {
		return err
	}

	s.current = proc
	s.port = 0
	s.portCh = make(chan int, 1)
	s.notify("running", proc.PID)

	go s.scanStdout(stdout, s.portCh)
	go s.drainStderr(stderr)
	go s.watchExit(proc)

	return nil
}

// scanStdout logs backend output and captures the port announcement.
func (s *Supervisor) scanStdout(r io.Reader, portCh chan int) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, portMarker) {
			if port, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, portMarker))); err == nil {
				s.mu.Lock()
				s.port = port
				s.mu.Unlock()
				select {
				case portCh <- port:
				default:
				}
				continue
			}
		}
		log.Printf("backend: %s", line)
	}
}

func (s *Supervisor) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Printf("backend stderr: %s", scanner.Text())
	}
}

func (s *Supervisor) watchExit(proc *Process) {
	proc.Wait()

	s.mu.Lock()
	wasCurrent := s.current == proc
	s.mu.Unlock()

	if wasCurrent {
		s.notify("stopped", proc.PID)
	}
}

// WaitForPort blocks until the backend announces its HTTP port.
func (s *Supervisor) WaitForPort(ctx context.Context) (int, error) {
	s.mu.Lock()
	port := s.port
	portCh := s.portCh
	s.mu.Unlock()

	if port != 0 {
		return port, nil
	}
	if portCh == nil {
		return 0, fmt.Errorf("backend not started")
	}

	select {
	case p := <-portCh:
		return p, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// PID returns the backend's process id, 0 when not running.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || !s.current.IsRunning() {
		return 0
	}
	return s.current.PID
}

// IsRunning reports whether the backend process is alive.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.IsRunning()
}

// Stop shuts the backend down gracefully (SIGINT, SIGTERM, then SIGKILL).
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	proc := s.current
	s.mu.Unlock()

	if proc == nil {
		return nil
	}
	return proc.GracefulShutdown(ctx)
}

func (s *Supervisor) notify(state string, pid int) {
	if s.listener != nil {
		s.listener.BackendStateChanged(state, pid)
	}
}
