package archives

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brettbedarf/resmgr"
	"github.com/brettbedarf/resmgr/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOverlay_LaterLayerWins(t *testing.T) {
	t.Parallel()
	base, err := OpenDir(writeTree(t, map[string]string{
		"textures/a.png": "base a",
		"textures/b.png": "base b",
	}))
	require.NoError(t, err)
	patch, err := OpenDir(writeTree(t, map[string]string{
		"Textures/A.png": "patched a",
		"textures/c.png": "patch c",
	}))
	require.NoError(t, err)
	o := NewOverlay(base, patch)

	data, err := o.Fetch(context.Background(), "textures/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("patched a"), data)

	data, err = o.Fetch(context.Background(), "textures/b.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("base b"), data)

	_, err = o.Fetch(context.Background(), "textures/z.png")
	assert.ErrorIs(t, err, resmgr.ErrFileNotFound)

	names, err := o.List("textures/*")
	require.NoError(t, err)
	assert.Equal(t, []string{"textures/a.png", "textures/b.png", "textures/c.png"}, names)

	name, ok := o.HashToString(o.Hash("textures/c.png"))
	require.True(t, ok)
	assert.Equal(t, "textures/c.png", name)
}

func TestOverlay_FetchErrorStopsLookup(t *testing.T) {
	t.Parallel()
	lower := &mocks.MockArchive{}
	upper := &mocks.MockArchive{}
	upper.On("Fetch", mock.Anything, "a.bin").Return(nil, errors.New("read failed"))
	o := NewOverlay(lower, upper)

	_, err := o.Fetch(context.Background(), "a.bin")

	assert.EqualError(t, err, "read failed")
	lower.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestOverlay_CloseCombinesErrors(t *testing.T) {
	t.Parallel()
	first := &mocks.MockArchive{}
	first.On("Close").Return(errors.New("first"))
	second := &mocks.MockArchive{}
	second.On("Close").Return(nil)
	third := &mocks.MockArchive{}
	third.On("Close").Return(errors.New("third"))

	err := NewOverlay(first, second, third).Close()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "third")
	first.AssertExpectations(t)
	second.AssertExpectations(t)
	third.AssertExpectations(t)
}

func TestOpenWithPatches(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	RegisterBuiltins(r)

	mainDir := writeTree(t, map[string]string{"a.txt": "main a", "b.txt": "main b"})
	patches := t.TempDir()
	writeZip(t, patches, "01-first.otr", map[string]string{"a.txt": "zip a", "c.txt": "zip c"})
	require.NoError(t, os.MkdirAll(filepath.Join(patches, "02-second", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(patches, "02-second", "c.txt"), []byte("dir c"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(patches, "readme.md"), []byte("ignored"), 0o644))

	a, err := OpenWithPatches(context.Background(), r, DirKind, mainDir, patches, Options{})
	require.NoError(t, err)
	defer a.Close()

	o, ok := a.(*Overlay)
	require.True(t, ok)
	assert.Len(t, o.Layers(), 3)

	for name, want := range map[string]string{"a.txt": "zip a", "b.txt": "main b", "c.txt": "dir c"} {
		data, err := a.Fetch(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, want, string(data), name)
	}
}

func TestOpenWithPatches_NoPatches(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	RegisterBuiltins(r, DirKind)

	a, err := OpenWithPatches(context.Background(), r, DirKind, writeTree(t, map[string]string{"a.txt": "a"}), "", Options{})
	require.NoError(t, err)
	assert.IsType(t, &DirArchive{}, a)

	_, err = OpenWithPatches(context.Background(), r, DirKind, t.TempDir(), filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)
}
