package modelcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
)

// LockFileName is the advisory lock guarding the cache directory.
const LockFileName = ".lock"

// ErrNotCached reports that a named model is not in the cache.
var ErrNotCached = errors.New("model not cached")

var weightFiles = []string{"model.bin", "pytorch_model.bin"}

var repoPrefixes = []string{"faster-distil-whisper-", "faster-whisper-", "whisper-"}

// Entry describes one cached model directory.
type Entry struct {
	// Name is the model name ("medium", "large-v3") or the raw directory
	// name when it does not follow a known layout.
	Name string
	Dir  string
	Size int64
}

// HumanSize formats Size with SI units.
func (e Entry) HumanSize() string {
	return humanize.Bytes(uint64(max(e.Size, 0)))
}

// Cache manages a model cache directory.
type Cache struct {
	dir string
}

// New returns a Cache rooted at dir. The directory need not exist.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// List returns the cached models sorted by size, largest first. A missing
// cache directory yields an empty list.
func (c *Cache) List() ([]Entry, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model cache: %w", err)
	}

	var models []Entry
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(c.dir, entry.Name())
		if !containsWeights(dir) {
			continue
		}
		size, err := DirSize(dir)
		if err != nil {
			return nil, err
		}
		models = append(models, Entry{Name: ModelName(entry.Name()), Dir: dir, Size: size})
	}
	sort.SliceStable(models, func(i, j int) bool {
		if models[i].Size != models[j].Size {
			return models[i].Size > models[j].Size
		}
		return models[i].Name < models[j].Name
	})
	return models, nil
}

// Lookup finds the cache entry for a model name or raw directory name.
func (c *Cache) Lookup(name string) (Entry, bool, error) {
	name = strings.TrimSpace(name)
	models, err := c.List()
	if err != nil {
		return Entry{}, false, err
	}
	for _, m := range models {
		if m.Name == name || filepath.Base(m.Dir) == name {
			return m, true, nil
		}
	}
	return Entry{}, false, nil
}

// IsCached reports whether weights for model are present.
func (c *Cache) IsCached(model string) (bool, error) {
	_, ok, err := c.Lookup(model)
	return ok, err
}

// Remove deletes a cached model. Directories that hold no weights but match
// name exactly are removed too so partial downloads can be cleaned up.
func (c *Cache) Remove(ctx context.Context, name string) (Entry, error) {
	unlock, err := c.lock(ctx, true)
	if err != nil {
		return Entry{}, err
	}
	defer unlock()

	entry, ok, err := c.Lookup(name)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		dir := filepath.Join(c.dir, filepath.Base(strings.TrimSpace(name)))
		info, statErr := os.Stat(dir)
		if statErr != nil || !info.IsDir() || filepath.Base(dir) == LockFileName {
			return Entry{}, fmt.Errorf("%w: %s", ErrNotCached, name)
		}
		size, _ := DirSize(dir)
		entry = Entry{Name: filepath.Base(dir), Dir: dir, Size: size}
	}
	if err := os.RemoveAll(entry.Dir); err != nil {
		return Entry{}, fmt.Errorf("remove %s: %w", entry.Dir, err)
	}
	return entry, nil
}

// Clear removes everything in the cache directory except the lock file and
// returns the removed paths.
func (c *Cache) Clear(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(c.dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat model cache: %w", err)
	}

	unlock, err := c.lock(ctx, true)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read model cache: %w", err)
	}
	var removed []string
	for _, entry := range entries {
		if entry.Name() == LockFileName {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// TotalSize sums the size of every file under the cache directory.
func (c *Cache) TotalSize() (int64, error) {
	size, err := DirSize(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return size, err
}

// AcquireShared blocks until a shared lock is held. The returned function
// releases it.
func (c *Cache) AcquireShared(ctx context.Context) (func(), error) {
	return c.lock(ctx, false)
}

func (c *Cache) lock(ctx context.Context, exclusive bool) (func(), error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model cache: %w", err)
	}
	lock := flock.New(filepath.Join(c.dir, LockFileName))
	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = lock.TryLockContext(ctx, 250*time.Millisecond)
	} else {
		ok, err = lock.TryRLockContext(ctx, 250*time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("acquire model cache lock: %w", err)
	}
	if !ok {
		return nil, errors.New("acquire model cache lock: not acquired")
	}
	return func() { _ = lock.Unlock() }, nil
}

// ModelName maps a cache directory name to a model name. Hub directories
// such as "models--Systran--faster-whisper-large-v3" become "large-v3".
func ModelName(dirName string) string {
	if !strings.HasPrefix(dirName, "models--") {
		return dirName
	}
	parts := strings.Split(strings.TrimPrefix(dirName, "models--"), "--")
	repo := parts[len(parts)-1]
	for _, prefix := range repoPrefixes {
		if strings.HasPrefix(repo, prefix) {
			trimmed := strings.TrimPrefix(repo, prefix)
			if prefix == "faster-distil-whisper-" {
				return "distil-" + trimmed
			}
			return trimmed
		}
	}
	return repo
}

// DirSize totals regular file sizes below dir, skipping symlinks.
func DirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

func containsWeights(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || found {
			return fs.SkipAll
		}
		for _, name := range weightFiles {
			if d.Name() == name {
				found = true
				return fs.SkipAll
			}
		}
		return nil
	})
	return found
}
