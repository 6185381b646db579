package appdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir_PathAccessors(t *testing.T) {
	d := New("/home/steve/.config/smithed_launcher")

	assert.Equal(t, "/home/steve/.config/smithed_launcher", d.Root())
	assert.Equal(t, "/home/steve/.config/smithed_launcher/launcher.yaml", d.ConfigPath())
	assert.Equal(t, "/home/steve/.config/smithed_launcher/smithed.json", d.BundlesPath())
	assert.Equal(t, "/home/steve/.config/smithed_launcher/engine.toml", d.EnginePath())
	assert.Equal(t, "/home/steve/.config/smithed_launcher/users.json", d.AccountsPath())
	assert.Equal(t, "/home/steve/.config/smithed_launcher/data/instances", d.InstancesDir())
	assert.Equal(t, "/home/steve/.config/smithed_launcher/data/instances/client", d.InstanceDir("client"))
}

func TestDir_Exists(t *testing.T) {
	tmp := t.TempDir()

	d := New(filepath.Join(tmp, "missing"))
	assert.False(t, d.Exists())

	d = New(tmp)
	assert.True(t, d.Exists())
}

func TestEnsureStructure_Idempotent(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), DirName))

	require.NoError(t, EnsureStructure(d))
	require.NoError(t, EnsureStructure(d))

	info, err := os.Stat(d.InstancesDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
