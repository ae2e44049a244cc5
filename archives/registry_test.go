package archives

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brettbedarf/resmgr"
	"github.com/brettbedarf/resmgr/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openerFor(a resmgr.Archive) OpenFunc {
	return func(context.Context, string, Options) (resmgr.Archive, error) {
		return a, nil
	}
}

func TestRegister_SingleOpener(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mockArchive := &mocks.MockArchive{}

	r.Register(HTTPKind, openerFor(mockArchive))
	a, err := r.Open(context.Background(), HTTPKind, "http://test.com", Options{})

	require.NoError(t, err)
	assert.Same(t, mockArchive, a)
}

func TestRegister_DuplicateOpener(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mockArchive1 := &mocks.MockArchive{}
	mockArchive2 := &mocks.MockArchive{}

	r.Register("test", openerFor(mockArchive1))
	r.Register("test", openerFor(mockArchive2))

	a, err := r.Open(context.Background(), "test", "", Options{})
	require.NoError(t, err)
	assert.Same(t, mockArchive1, a)
}

func TestRegister_Concurrent(t *testing.T) {
	t.Parallel()
	var wg sync.WaitGroup
	r := NewRegistry()

	for i := range 100 {
		wg.Go(func() {
			kind := fmt.Sprintf("test%d", i)
			mockArchive := &mocks.MockArchive{}
			r.Register(kind, openerFor(mockArchive))
			a, err := r.Open(context.Background(), kind, "", Options{})
			assert.NoError(t, err)
			assert.Same(t, mockArchive, a)
			// Small delay to increase chance of race conditions
			time.Sleep(time.Microsecond)
		})
	}
	wg.Wait()
	assert.Len(t, r.Kinds(), 100)
}

func TestOpen_UnknownKind(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	_, err := r.Open(context.Background(), "tar", "x.tar", Options{})
	assert.ErrorContains(t, err, `no archive opener for "tar"`)
}

func TestRegisterBuiltins(t *testing.T) {
	t.Parallel()

	all := NewRegistry()
	RegisterBuiltins(all)
	assert.Equal(t, []string{DirKind, HTTPKind, ZipKind}, all.Kinds())

	some := NewRegistry()
	RegisterBuiltins(some, ZipKind)
	assert.Equal(t, []string{ZipKind}, some.Kinds())
}
