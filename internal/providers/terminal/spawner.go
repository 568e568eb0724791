package terminal

import (
	"context"
	"io"
	"os"
	"strings"
)

// Process is a running shell attached to a pseudo-terminal.
type Process interface {
	io.ReadWriter
	// Resize changes the pty window size
	Resize(cols, rows int) error
	// Wait blocks until the shell exits and returns its exit code
	Wait() (int, error)
	// Kill terminates the shell
	Kill() error
	// Close releases the pty; pending Reads return an error
	Close() error
	Pid() int
}

// SpawnOptions describes the shell to start
type SpawnOptions struct {
	Shell string
	Args  []string
	Dir   string
	Env   []string
	Cols  int
	Rows  int
}

// Spawner starts shells on a pty. PTYSpawner is the real implementation;
// tests substitute their own.
type Spawner interface {
	Spawn(ctx context.Context, opts SpawnOptions) (Process, error)
}

// baseEnv is added on top of the process environment for every shell
var baseEnv = map[string]string{
	"TERM":      "xterm-256color",
	"COLORTERM": "truecolor",
}

// buildEnv returns os env + baseEnv + extra, later keys replacing earlier ones.
func buildEnv(environ []string, extra map[string]string) []string {
	index := make(map[string]int, len(environ)+len(baseEnv)+len(extra))
	out := make([]string, 0, len(environ)+len(baseEnv)+len(extra))

	set := func(kv string) {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if pos, ok := index[key]; ok {
			out[pos] = kv
			return
		}
		index[key] = len(out)
		out = append(out, kv)
	}

	for _, kv := range environ {
		set(kv)
	}
	for k, v := range baseEnv {
		set(k + "=" + v)
	}
	for k, v := range extra {
		set(k + "=" + v)
	}
	return out
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return os.TempDir()
}

// environ is swapped out by tests
var environ = os.Environ
