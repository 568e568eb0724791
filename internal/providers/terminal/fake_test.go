package terminal

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
)

// fakeProcess is a pty stand-in: output is pushed with emit, the shell
// ends with exit.
type fakeProcess struct {
	pid int
	pr  *io.PipeReader
	pw  *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
	cols    int
	rows    int
	resizes int

	exitCh   chan int
	exitOnce sync.Once
	killed   atomic.Bool
	closed   atomic.Bool
}

func newFakeProcess(pid, cols, rows int) *fakeProcess {
	pr, pw := io.Pipe()
	return &fakeProcess{pid: pid, pr: pr, pw: pw, cols: cols, rows: rows, exitCh: make(chan int, 1)}
}

func (p *fakeProcess) Read(b []byte) (int, error) { return p.pr.Read(b) }

func (p *fakeProcess) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *fakeProcess) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cols, p.rows = cols, rows
	p.resizes++
	return nil
}

func (p *fakeProcess) Wait() (int, error) { return <-p.exitCh, nil }

func (p *fakeProcess) Kill() error {
	p.killed.Store(true)
	p.finish(-1)
	return nil
}

func (p *fakeProcess) Close() error {
	p.closed.Store(true)
	_ = p.pw.Close()
	return p.pr.Close()
}

func (p *fakeProcess) Pid() int { return p.pid }

// emit blocks until the registry reader has consumed data
func (p *fakeProcess) emit(data string) {
	_, _ = p.pw.Write([]byte(data))
}

// exit ends the shell after all emitted output was read
func (p *fakeProcess) exit(code int) {
	_ = p.pw.Close()
	p.finish(code)
}

func (p *fakeProcess) finish(code int) {
	p.exitOnce.Do(func() { p.exitCh <- code })
}

func (p *fakeProcess) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

func (p *fakeProcess) Size() (int, int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cols, p.rows, p.resizes
}

type fakeSpawner struct {
	mu    sync.Mutex
	err   error
	opts  []SpawnOptions
	procs []*fakeProcess
}

func (s *fakeSpawner) Spawn(_ context.Context, opts SpawnOptions) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opts = append(s.opts, opts)
	if s.err != nil {
		return nil, s.err
	}
	proc := newFakeProcess(1000+len(s.procs), opts.Cols, opts.Rows)
	s.procs = append(s.procs, proc)
	return proc, nil
}

func (s *fakeSpawner) proc(i int) *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.procs[i]
}

func (s *fakeSpawner) lastOpts() SpawnOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts[len(s.opts)-1]
}
