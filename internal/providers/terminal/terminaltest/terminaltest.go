// Package terminaltest provides an in-memory Spawner for tests that need a
// real terminal.Registry without starting shells.
package terminaltest

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/GriffinCanCode/TermDeck/backend/internal/providers/terminal"
)

// Process is a pty stand-in. Output is pushed with Emit; the shell ends with Exit.
type Process struct {
	pid int
	pr  *io.PipeReader
	pw  *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
	cols    int
	rows    int
	opts    terminal.SpawnOptions

	exitCh   chan int
	exitOnce sync.Once
}

func newProcess(pid int, opts terminal.SpawnOptions) *Process {
	pr, pw := io.Pipe()
	return &Process{
		pid:    pid,
		pr:     pr,
		pw:     pw,
		cols:   opts.Cols,
		rows:   opts.Rows,
		opts:   opts,
		exitCh: make(chan int, 1),
	}
}

func (p *Process) Read(b []byte) (int, error) { return p.pr.Read(b) }

func (p *Process) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *Process) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cols, p.rows = cols, rows
	return nil
}

func (p *Process) Wait() (int, error) { return <-p.exitCh, nil }

func (p *Process) Kill() error {
	p.finish(-1)
	return nil
}

func (p *Process) Close() error {
	_ = p.pw.Close()
	return p.pr.Close()
}

func (p *Process) Pid() int { return p.pid }

// Emit blocks until the registry has read data
func (p *Process) Emit(data string) {
	_, _ = p.pw.Write([]byte(data))
}

// Exit ends the shell with code
func (p *Process) Exit(code int) {
	_ = p.pw.Close()
	p.finish(code)
}

func (p *Process) finish(code int) {
	p.exitOnce.Do(func() { p.exitCh <- code })
}

// Written returns everything the registry wrote to the pty
func (p *Process) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

// Size returns the current pty size
func (p *Process) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cols, p.rows
}

// Options returns the options the process was spawned with
func (p *Process) Options() terminal.SpawnOptions {
	return p.opts
}

// Spawner hands out Processes in spawn order
type Spawner struct {
	mu    sync.Mutex
	err   error
	procs []*Process
}

// NewSpawner creates an empty spawner
func NewSpawner() *Spawner {
	return &Spawner{}
}

// Spawn implements terminal.Spawner
func (s *Spawner) Spawn(_ context.Context, opts terminal.SpawnOptions) (terminal.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		err := s.err
		s.err = nil
		return nil, err
	}
	proc := newProcess(1000+len(s.procs), opts)
	s.procs = append(s.procs, proc)
	return proc, nil
}

// FailNext makes the next Spawn return err
func (s *Spawner) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Process returns the i-th spawned process
func (s *Spawner) Process(i int) *Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.procs[i]
}

// Len returns how many processes were spawned
func (s *Spawner) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}
