package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataDirHonorsXDG(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	assert.Equal(t, filepath.Join(tmp, AppName), DataDir())
	assert.Equal(t, filepath.Join(tmp, AppName, SessionsDir), SessionRecordDir(""))
	assert.Equal(t, filepath.Join(tmp, AppName, DatabaseFile), DatabasePath(""))
}

func TestOverrides(t *testing.T) {
	assert.Equal(t, filepath.Join("/srv/deck", SessionsDir), SessionRecordDir("/srv/deck"))
	assert.Equal(t, filepath.Join("/srv/deck", DatabaseFile), DatabasePath("/srv/deck"))
}

func TestDefaultKeymap(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)
	t.Setenv("AppData", tmp)

	assert.Equal(t, "", DefaultKeymap())

	require.NoError(t, os.MkdirAll(ConfigDir(), 0o755))
	path := filepath.Join(ConfigDir(), KeymapTOML)
	require.NoError(t, os.WriteFile(path, []byte("[bindings]\n"), 0o644))

	assert.Equal(t, path, DefaultKeymap())
}
