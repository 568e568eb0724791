package paths

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under the platform data and config roots
const AppName = "termdeck"

// File names inside DataDir / ConfigDir
const (
	SessionsDir  = "sessions"
	DatabaseFile = "termdeck.db"
	KeymapYAML   = "keymap.yaml"
	KeymapTOML   = "keymap.toml"
)

// DataDir returns $XDG_DATA_HOME/termdeck, else ~/.local/share/termdeck.
// On Windows it lives under %LocalAppData%.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, ".local", "share", AppName)
}

// ConfigDir returns the user config directory for termdeck
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(DataDir(), "config")
	}
	return filepath.Join(dir, AppName)
}

// SessionRecordDir returns where file-backed session records go, rooted at
// override when it is set.
func SessionRecordDir(override string) string {
	if override != "" {
		return filepath.Join(override, SessionsDir)
	}
	return filepath.Join(DataDir(), SessionsDir)
}

// DatabasePath returns the sqlite database path, rooted at override when set
func DatabasePath(override string) string {
	if override != "" {
		return filepath.Join(override, DatabaseFile)
	}
	return filepath.Join(DataDir(), DatabaseFile)
}

// DefaultKeymap returns the first existing keymap file in ConfigDir, or ""
func DefaultKeymap() string {
	for _, name := range []string{KeymapYAML, KeymapTOML} {
		path := filepath.Join(ConfigDir(), name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
