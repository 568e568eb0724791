package terminal

import (
	"bufio"
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// ShellInfo describes an installed shell
type ShellInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	IsDefault bool   `json:"is_default"`
}

var (
	unixFallbacks    = []string{"zsh", "bash", "sh"}
	windowsShells    = []string{"pwsh.exe", "powershell.exe", "cmd.exe"}
	shellDisplayName = map[string]string{
		"bash":       "Bash",
		"zsh":        "Zsh",
		"sh":         "sh",
		"fish":       "Fish",
		"dash":       "Dash",
		"ksh":        "KornShell",
		"tcsh":       "tcsh",
		"nu":         "Nushell",
		"pwsh":       "PowerShell",
		"powershell": "Windows PowerShell",
		"cmd":        "Command Prompt",
	}
)

// ShellProbe picks the shell for new terminals. The probed default is
// computed once; explicit shells bypass probing.
type ShellProbe struct {
	override string
	allow    []string

	goos       string
	getenv     func(string) string
	lookPath   func(string) (string, error)
	shellsFile string

	once sync.Once
	def  string
}

// NewShellProbe creates a probe. override replaces the probed default;
// allow holds doublestar globs a shell path must match (empty allows all).
func NewShellProbe(override string, allow []string) *ShellProbe {
	return &ShellProbe{
		override:   override,
		allow:      allow,
		goos:       runtime.GOOS,
		getenv:     os.Getenv,
		lookPath:   exec.LookPath,
		shellsFile: "/etc/shells",
	}
}

// Default returns the shell used when a request names none
func (p *ShellProbe) Default() string {
	p.once.Do(func() {
		if p.override != "" {
			p.def = p.override
			return
		}
		p.def = p.probe()
	})
	return p.def
}

// Resolve returns explicit when set, otherwise the default
func (p *ShellProbe) Resolve(explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	return p.Default()
}

// Allowed reports whether the shell path matches the allow-list
func (p *ShellProbe) Allowed(shell string) bool {
	if len(p.allow) == 0 {
		return true
	}
	path := filepath.ToSlash(shell)
	for _, pattern := range p.allow {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if ok, err := doublestar.Match(filepath.ToSlash(pattern), path); err == nil && ok {
			return true
		}
		// bare names ("zsh") match on the base name
		if ok, err := doublestar.Match(pattern, filepath.Base(shell)); err == nil && ok {
			return true
		}
	}
	return false
}

func (p *ShellProbe) probe() string {
	if p.goos == "windows" {
		if path, err := p.lookPath("pwsh.exe"); err == nil {
			return path
		}
		return "powershell.exe"
	}

	if shell := p.getenv("SHELL"); shell != "" {
		return shell
	}
	for _, name := range unixFallbacks {
		if path, err := p.lookPath(name); err == nil {
			return path
		}
	}
	return "/bin/sh"
}

// Shells lists installed shells that pass the allow-list, default first.
func (p *ShellProbe) Shells() []ShellInfo {
	def := p.Default()

	var paths []string
	if p.goos == "windows" {
		for _, name := range windowsShells {
			if path, err := p.lookPath(name); err == nil {
				paths = append(paths, path)
			}
		}
	} else {
		paths = p.readShellsFile()
	}

	seen := make(map[string]bool)
	out := []ShellInfo{shellInfo(def, true)}
	seen[def] = true

	for _, path := range paths {
		if seen[path] || !p.Allowed(path) {
			continue
		}
		seen[path] = true
		out = append(out, shellInfo(path, false))
	}
	return out
}

func (p *ShellProbe) readShellsFile() []string {
	data, err := os.ReadFile(p.shellsFile)
	if err != nil {
		return nil
	}

	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := os.Stat(line); err != nil {
			continue
		}
		paths = append(paths, line)
	}
	return paths
}

func shellInfo(path string, isDefault bool) ShellInfo {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name, ok := shellDisplayName[base]
	if !ok {
		name = base
	}
	return ShellInfo{
		ID:        base,
		Name:      name,
		Path:      path,
		IsDefault: isDefault,
	}
}
