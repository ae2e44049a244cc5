package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCache_Acquire(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		enqueue    bool
		wantQueued bool
		wantCached bool
	}{
		{name: "queued file is cached", enqueue: true, wantQueued: true, wantCached: true},
		{name: "rejected file is not cached", enqueue: false, wantQueued: false, wantCached: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newFileCache()
			created := 0

			f, hit, queued := c.acquire("a",
				func() *File { created++; return newFile("a", 1) },
				func(*File) bool { return tt.enqueue })

			require.NotNil(t, f)
			assert.False(t, hit)
			assert.Equal(t, tt.wantQueued, queued)
			assert.Equal(t, 1, created)
			_, ok := c.Get("a")
			assert.Equal(t, tt.wantCached, ok)
		})
	}
}

func TestFileCache_AcquireHit(t *testing.T) {
	t.Parallel()
	c := newFileCache()
	first, _, _ := c.acquire("a", func() *File { return newFile("a", 1) }, func(*File) bool { return true })

	f, hit, queued := c.acquire("a",
		func() *File { t.Fatal("hit must not create a File"); return nil },
		func(*File) bool { t.Fatal("hit must not enqueue"); return false })

	assert.Same(t, first, f)
	assert.True(t, hit)
	assert.False(t, queued)
	assert.Equal(t, 1, c.Len())
}

func TestFileCache_RemoveOnlyMatchingEntry(t *testing.T) {
	t.Parallel()
	c := newFileCache()
	stale := newFile("a", 1)
	current, _, _ := c.acquire("a", func() *File { return newFile("a", 1) }, func(*File) bool { return true })

	assert.False(t, c.remove("a", stale))
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.remove("a", current))
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Delete("a"))
}

func TestResourceCache_LookupOrEnqueue(t *testing.T) {
	t.Parallel()
	f := newFile("a", 1)
	clean := &Resource{File: f, Payload: "clean"}
	dirty := &Resource{File: f, Payload: "dirty"}
	dirty.MarkDirty()

	tests := []struct {
		name      string
		stored    bool
		entry     *Resource
		wantHit   bool
		wantQueue bool
	}{
		{name: "absent", stored: false, wantHit: false, wantQueue: true},
		{name: "clean", stored: true, entry: clean, wantHit: true},
		{name: "cached failure", stored: true, entry: nil, wantHit: true},
		{name: "dirty", stored: true, entry: dirty, wantHit: false, wantQueue: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newResourceCache()
			if tt.stored {
				c.store("a", tt.entry)
			}
			enqueued := false

			res, hit, queued := c.lookupOrEnqueue("a", func() bool { enqueued = true; return true })

			assert.Equal(t, tt.wantHit, hit)
			assert.Equal(t, tt.wantQueue, queued)
			assert.Equal(t, tt.wantQueue, enqueued)
			if tt.wantHit {
				assert.Same(t, tt.entry, res)
			} else {
				assert.Nil(t, res)
			}
		})
	}
}

func TestResourceCache_DirtyEntryStaysUntilReplaced(t *testing.T) {
	t.Parallel()
	c := newResourceCache()
	old := &Resource{File: newFile("a", 1)}
	c.store("a", old)

	require.True(t, c.markDirty("a"))
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Same(t, old, got)

	fresh := &Resource{File: newFile("a", 1)}
	c.store("a", fresh)
	got, _ = c.Get("a")
	assert.Same(t, fresh, got)
	assert.False(t, got.IsDirty())
}

func TestResourceCache_MarkDirtyAndClear(t *testing.T) {
	t.Parallel()
	c := newResourceCache()
	c.store("ok", &Resource{File: newFile("ok", 1)})
	c.store("failed", nil)

	assert.False(t, c.markDirty("absent"))
	assert.False(t, c.markDirty("failed"))
	assert.True(t, c.markDirty("ok"))

	assert.Equal(t, 2, c.clear())
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("failed")
	assert.False(t, ok)
}

func TestResourceCache_Invalidate(t *testing.T) {
	t.Parallel()
	c := newResourceCache()
	res := &Resource{File: newFile("ok", 1)}
	c.store("ok", res)
	c.store("failed", nil)

	assert.False(t, c.invalidate("absent"))

	assert.True(t, c.invalidate("ok"))
	assert.True(t, res.IsDirty())
	_, ok := c.Get("ok")
	assert.True(t, ok)

	assert.True(t, c.invalidate("failed"))
	_, ok = c.Get("failed")
	assert.False(t, ok)
}
