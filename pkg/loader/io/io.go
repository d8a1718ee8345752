package io

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"
)

// IOFileLoader loads files directly from the local filesystem with caching.
type IOFileLoader struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewIOFileLoader creates a new filesystem-based file loader.
func NewIOFileLoader() *IOFileLoader {
	return &IOFileLoader{
		cache: make(map[string][]byte),
	}
}

// GetFile reads the file content from the filesystem. Results are cached.
func (l *IOFileLoader) GetFile(ctx context.Context, path string) ([]byte, error) {
	l.cacheMu.RLock()
	if cached, ok := l.cache[path]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(path, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[path]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[path] = result
		l.cacheMu.Unlock()

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// Forget drops the cached contents of path.
func (l *IOFileLoader) Forget(path string) {
	l.cacheMu.Lock()
	delete(l.cache, path)
	l.cacheMu.Unlock()
	l.group.Forget(path)
}
