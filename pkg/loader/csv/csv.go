package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/netexplorer/pkg/edgetable"
	"github.com/OFFIS-RIT/netexplorer/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// ErrEmpty is returned by ParseTable when the input holds no header row.
var ErrEmpty = errors.New("CSV file is empty or contains no valid data")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVTableLoader fetches CSV files through a base loader and decodes them
// into tables. Decoded tables are cached per path.
type CSVTableLoader struct {
	loader loader.FileLoader

	cache   map[string]edgetable.Table
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewCSVTableLoader creates a new CSVTableLoader with the given base loader.
func NewCSVTableLoader(loader loader.FileLoader) *CSVTableLoader {
	return &CSVTableLoader{
		loader: loader,
		cache:  make(map[string]edgetable.Table),
	}
}

// GetTable retrieves and parses the CSV file at path.
func (l *CSVTableLoader) GetTable(ctx context.Context, path string) (edgetable.Table, error) {
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

		content, err := l.loader.GetFile(ctx, path)
		if err != nil {
			return nil, err
		}

		parsed, err := ParseTable(content)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[path] = parsed
		l.cacheMu.Unlock()

		return parsed, nil
	})
	if err != nil {
		return edgetable.Table{}, err
	}

	return result.(edgetable.Table), nil
}

// Forget drops the cached table for path so the next GetTable refetches it.
// The base loader's cache is cleared as well.
func (l *CSVTableLoader) Forget(path string) {
	l.cacheMu.Lock()
	delete(l.cache, path)
	l.cacheMu.Unlock()
	l.group.Forget(path)

	loader.Forget(l.loader, path)
}

// ParseTable decodes CSV content into a table. The first non-blank record is
// the header. Quotes are parsed leniently, records may have any number of
// fields. Blank and unreadable records are skipped.
func ParseTable(content []byte) (edgetable.Table, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var t edgetable.Table
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil || isBlank(record) {
			continue
		}

		if t.Header == nil {
			t.Header = make([]string, len(record))
			for i, h := range record {
				t.Header[i] = strings.TrimSpace(h)
			}
			continue
		}
		t.Rows = append(t.Rows, record)
	}

	if t.Header == nil {
		return edgetable.Table{}, ErrEmpty
	}
	return t, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
