package terminal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubProbe(goos string, env map[string]string, onPath map[string]string) *ShellProbe {
	p := NewShellProbe("", nil)
	p.goos = goos
	p.getenv = func(k string) string { return env[k] }
	p.lookPath = func(name string) (string, error) {
		if path, ok := onPath[name]; ok {
			return path, nil
		}
		return "", errors.New("not found")
	}
	return p
}

func TestDefaultShell(t *testing.T) {
	tests := []struct {
		name   string
		goos   string
		env    map[string]string
		onPath map[string]string
		want   string
	}{
		{"windows prefers pwsh", "windows", nil, map[string]string{"pwsh.exe": "pwsh.exe"}, "pwsh.exe"},
		{"windows falls back to powershell", "windows", nil, nil, "powershell.exe"},
		{"unix uses SHELL", "linux", map[string]string{"SHELL": "/usr/bin/fish"}, map[string]string{"zsh": "/bin/zsh"}, "/usr/bin/fish"},
		{"unix prefers zsh", "darwin", nil, map[string]string{"zsh": "/bin/zsh", "bash": "/bin/bash"}, "/bin/zsh"},
		{"unix then bash", "linux", nil, map[string]string{"bash": "/usr/bin/bash"}, "/usr/bin/bash"},
		{"unix last resort", "linux", nil, nil, "/bin/sh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stubProbe(tt.goos, tt.env, tt.onPath).Default())
		})
	}
}

func TestDefaultShellIsCached(t *testing.T) {
	env := map[string]string{"SHELL": "/bin/zsh"}
	p := stubProbe("linux", env, nil)

	assert.Equal(t, "/bin/zsh", p.Default())
	env["SHELL"] = "/bin/fish"
	assert.Equal(t, "/bin/zsh", p.Default())
}

func TestResolveExplicitBypassesProbe(t *testing.T) {
	calls := 0
	p := NewShellProbe("", nil)
	p.getenv = func(string) string { calls++; return "/bin/zsh" }

	assert.Equal(t, "/usr/local/bin/nu", p.Resolve("/usr/local/bin/nu"))
	assert.Equal(t, 0, calls)
	assert.Equal(t, "/bin/zsh", p.Resolve("  "))
}

func TestOverrideWins(t *testing.T) {
	p := NewShellProbe("/bin/dash", nil)
	p.getenv = func(string) string { return "/bin/zsh" }

	assert.Equal(t, "/bin/dash", p.Default())
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		allow []string
		shell string
		want  bool
	}{
		{nil, "/anything", true},
		{[]string{"/bin/*"}, "/bin/zsh", true},
		{[]string{"/bin/*"}, "/usr/bin/zsh", false},
		{[]string{"/usr/**"}, "/usr/local/bin/fish", true},
		{[]string{"zsh"}, "/opt/homebrew/bin/zsh", true},
		{[]string{"", "bash"}, "/bin/zsh", false},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			p := NewShellProbe("", tt.allow)
			assert.Equal(t, tt.want, p.Allowed(tt.shell))
		})
	}
}

func TestShellsFromFile(t *testing.T) {
	dir := t.TempDir()
	bash := filepath.Join(dir, "bash")
	fish := filepath.Join(dir, "fish")
	for _, f := range []string{bash, fish} {
		require.NoError(t, os.WriteFile(f, nil, 0o755))
	}

	shellsFile := filepath.Join(dir, "shells")
	content := "# /etc/shells\n" + bash + "\n" + fish + "\n" + filepath.Join(dir, "gone") + "\n\n" + bash + "\n"
	require.NoError(t, os.WriteFile(shellsFile, []byte(content), 0o644))

	p := NewShellProbe(bash, []string{filepath.Join(dir, "*")})
	p.goos = "linux"
	p.shellsFile = shellsFile

	shells := p.Shells()
	require.Len(t, shells, 2)
	assert.Equal(t, ShellInfo{ID: "bash", Name: "Bash", Path: bash, IsDefault: true}, shells[0])
	assert.Equal(t, ShellInfo{ID: "fish", Name: "Fish", Path: fish, IsDefault: false}, shells[1])
}

func TestShellsWindows(t *testing.T) {
	p := stubProbe("windows", nil, map[string]string{"pwsh.exe": "pwsh.exe", "cmd.exe": "cmd.exe"})

	shells := p.Shells()
	require.Len(t, shells, 2)
	assert.Equal(t, "pwsh", shells[0].ID)
	assert.True(t, shells[0].IsDefault)
	assert.Equal(t, "Command Prompt", shells[1].Name)
}
