package bundles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Smithed-MC/UX/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "smithed.json"))
	require.NoError(t, err)

	return s
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)

	all, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, all)

	ok, err := s.Exists("anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_AddGetRemove(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Add("survival", Definition{Version: "1.20.1"}))

	def, err := s.Get("survival")
	require.NoError(t, err)
	assert.Equal(t, "1.20.1", def.Version)
	assert.NotNil(t, def.Packs)
	assert.Empty(t, def.Packs)

	ok, err := s.Exists("survival")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Remove("survival"))

	_, err = s.Get("survival")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Remove("survival"), ErrNotFound)
}

func TestStore_AddReplaces(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Add("b", Definition{Version: "1.19.4"}))
	require.NoError(t, s.Add("b", Definition{Version: "1.20.1"}))

	def, err := s.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "1.20.1", def.Version)
}

func TestStore_PackOrderAndRemoval(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add("b", Definition{Version: "1.20.1"}))

	require.NoError(t, s.AddPack("b", registry.PackReference{ID: "foo", Version: "1"}))
	require.NoError(t, s.AddPack("b", registry.PackReference{ID: "bar", Version: "2"}))
	require.NoError(t, s.AddPack("b", registry.PackReference{ID: "foo", Version: "3"}))

	packs, err := s.Packs("b")
	require.NoError(t, err)
	assert.Equal(t, []registry.PackReference{
		{ID: "foo", Version: "1"},
		{ID: "bar", Version: "2"},
		{ID: "foo", Version: "3"},
	}, packs)

	// Only the first match is removed.
	require.NoError(t, s.RemovePack("b", "foo"))
	packs, err = s.Packs("b")
	require.NoError(t, err)
	assert.Equal(t, []registry.PackReference{
		{ID: "bar", Version: "2"},
		{ID: "foo", Version: "3"},
	}, packs)

	require.NoError(t, s.RemovePack("b", "missing"))
	assert.ErrorIs(t, s.AddPack("nope", registry.PackReference{ID: "x"}), ErrNotFound)
	assert.ErrorIs(t, s.RemovePack("nope", "x"), ErrNotFound)
}

func TestStore_FileFormat(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add("b", Definition{
		Version: "1.20.1",
		Packs:   []registry.PackReference{{ID: "foo", Version: "1"}},
	}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"local_bundles":{"b":{"version":"1.20.1","packs":[{"id":"foo","version":"1"}]}}}`, string(data))
}

func TestStore_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smithed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"local_bundles":{"x":{"version":"1.18.2","packs":[]}}}`), 0o600))

	s, err := NewStore(path)
	require.NoError(t, err)

	ids, err := s.IDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smithed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	s, err := NewStore(path)
	require.NoError(t, err)

	_, err = s.List()
	assert.Error(t, err)
	assert.Error(t, s.Add("a", Definition{Version: "1.20"}))
}
