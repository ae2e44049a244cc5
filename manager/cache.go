package manager

import "sync"

// FileCache maps normalized paths to Files. Entries are added when a load is
// queued, so an in-flight File is shared by every request for its path.
// Failed Files are removed again by the file loader.
type FileCache struct {
	mu    sync.Mutex
	files map[string]*File
}

func newFileCache() *FileCache {
	return &FileCache{files: make(map[string]*File)}
}

// acquire returns the cached File for key (hit=true). On a miss it creates a
// File with newFn and hands it to enqueue while the lock is still held; the
// File is only cached if enqueue accepted it.
func (c *FileCache) acquire(key string, newFn func() *File, enqueue func(*File) bool) (f *File, hit bool, queued bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.files[key]; ok {
		return f, true, false
	}
	f = newFn()
	if enqueue(f) {
		c.files[key] = f
		return f, false, true
	}
	return f, false, false
}

// remove deletes the entry for key only if it still refers to f
func (c *FileCache) remove(key string, f *File) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.files[key]; ok && cur == f {
		delete(c.files, key)
		return true
	}
	return false
}

// Get returns the cached File for key, pending or loaded
func (c *FileCache) Get(key string) (*File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[key]
	return f, ok
}

// Delete drops the entry for key regardless of its state
func (c *FileCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.files[key]
	delete(c.files, key)
	return ok
}

func (c *FileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}

// ResourceCache maps normalized paths to decoded Resources. A nil entry is a
// cached decode failure and counts as present.
type ResourceCache struct {
	mu        sync.Mutex
	resources map[string]*Resource
}

func newResourceCache() *ResourceCache {
	return &ResourceCache{resources: make(map[string]*Resource)}
}

// lookupOrEnqueue returns a present, clean entry for key (hit=true).
// Otherwise enqueue is called under the lock and its result returned as queued.
// A dirty entry stays in place until the new decode replaces it.
func (c *ResourceCache) lookupOrEnqueue(key string, enqueue func() bool) (res *Resource, hit bool, queued bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res, ok := c.resources[key]; ok && !res.IsDirty() {
		return res, true, false
	}
	return nil, false, enqueue()
}

// store sets the entry for key; res may be nil to cache a failure
func (c *ResourceCache) store(key string, res *Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources[key] = res
}

// Get returns the entry for key. ok is true for cached failures (nil res).
func (c *ResourceCache) Get(key string) (res *Resource, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok = c.resources[key]
	return
}

// markDirty flags the cached Resource for key. Returns false when there is
// no Resource to flag (absent or a cached failure).
func (c *ResourceCache) markDirty(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.resources[key]
	if !ok || res == nil {
		return false
	}
	res.MarkDirty()
	return true
}

// invalidate marks the Resource for key dirty, or drops a cached failure.
// Returns false if nothing was cached.
func (c *ResourceCache) invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.resources[key]
	if !ok {
		return false
	}
	if res == nil {
		delete(c.resources, key)
		return true
	}
	res.MarkDirty()
	return true
}

// clear removes every entry and returns how many there were
func (c *ResourceCache) clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.resources)
	clear(c.resources)
	return n
}

func (c *ResourceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.resources)
}
