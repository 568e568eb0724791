//go:build windows

package terminal

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/charmbracelet/x/conpty"
)

// PTYSpawner starts shells on a Windows pseudo console (10 1809+)
type PTYSpawner struct{}

// NewPTYSpawner returns the platform spawner
func NewPTYSpawner() Spawner {
	return PTYSpawner{}
}

func (PTYSpawner) Spawn(ctx context.Context, opts SpawnOptions) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cpty, err := conpty.New(opts.Cols, opts.Rows, 0)
	if err != nil {
		return nil, fmt.Errorf("conpty.New: %w", err)
	}

	argv := append([]string{opts.Shell}, opts.Args...)
	pid, handle, err := cpty.Spawn(opts.Shell, argv, &syscall.ProcAttr{
		Dir: opts.Dir,
		Env: opts.Env,
	})
	if err != nil {
		cpty.Close()
		return nil, err
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		_ = syscall.TerminateProcess(syscall.Handle(handle), 1)
		_ = syscall.CloseHandle(syscall.Handle(handle))
		cpty.Close()
		return nil, err
	}

	return &conptyProcess{cpty: cpty, proc: proc, pid: pid, handle: handle}, nil
}

type conptyProcess struct {
	cpty   *conpty.ConPty
	proc   *os.Process
	pid    int
	handle uintptr

	closeOnce sync.Once
	closeErr  error
}

func (p *conptyProcess) Read(b []byte) (int, error)  { return p.cpty.Read(b) }
func (p *conptyProcess) Write(b []byte) (int, error) { return p.cpty.Write(b) }

func (p *conptyProcess) Resize(cols, rows int) error {
	return p.cpty.Resize(cols, rows)
}

func (p *conptyProcess) Wait() (int, error) {
	state, err := p.proc.Wait()
	if err != nil {
		return -1, err
	}
	return state.ExitCode(), nil
}

func (p *conptyProcess) Kill() error {
	return syscall.TerminateProcess(syscall.Handle(p.handle), 1)
}

func (p *conptyProcess) Close() error {
	p.closeOnce.Do(func() {
		_ = syscall.CloseHandle(syscall.Handle(p.handle))
		p.closeErr = p.cpty.Close()
	})
	return p.closeErr
}

func (p *conptyProcess) Pid() int { return p.pid }
