package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ipeadata-tools/inflation-indices/internal/dataset"
)

const (
	sourceDefault = "default"
	sourceUpload  = "upload"
)

// datasetEntry is a parsed dataset together with what was inferred from its
// columns.
type datasetEntry struct {
	Key      string
	Source   string
	Name     string
	Table    *dataset.Table
	Indices  []string
	Tipos    []string
	LoadedAt time.Time
}

// tableCache keeps parsed datasets keyed by file identity so repeated
// requests over the same file do not parse it again.
type tableCache struct {
	entries *lru.Cache[string, *datasetEntry]
	metrics *metrics
}

func newTableCache(size int, m *metrics) (*tableCache, error) {
	entries, err := lru.New[string, *datasetEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset cache: %w", err)
	}
	return &tableCache{entries: entries, metrics: m}, nil
}

// fileKey identifies a file on disk by path, size and modification time.
func fileKey(path string, info os.FileInfo) string {
	return fmt.Sprintf("file:%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
}

// contentKey identifies uploaded bytes by their SHA-256 digest.
func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// loadFile returns the dataset stored at path, parsing it only when the file
// changed since it was last cached.
func (c *tableCache) loadFile(path string) (*datasetEntry, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.observe(sourceDefault, "error")
		return nil, false, err
	}

	key := fileKey(path, info)
	if entry, ok := c.entries.Get(key); ok {
		c.observe(sourceDefault, "hit")
		return entry, true, nil
	}

	table, err := dataset.Load(path)
	if err != nil {
		c.observe(sourceDefault, "error")
		return nil, false, err
	}

	entry := newEntry(key, sourceDefault, info.Name(), table)
	c.entries.Add(key, entry)
	c.observe(sourceDefault, "miss")
	return entry, false, nil
}

// loadBytes returns the dataset held in data, an uploaded file named name.
func (c *tableCache) loadBytes(name string, data []byte) (*datasetEntry, bool, error) {
	key := contentKey(data)
	if entry, ok := c.entries.Get(key); ok {
		c.observe(sourceUpload, "hit")
		return entry, true, nil
	}

	table, err := dataset.ReadCSV(bytes.NewReader(data))
	if err != nil {
		c.observe(sourceUpload, "error")
		return nil, false, err
	}

	entry := newEntry(key, sourceUpload, name, table)
	c.entries.Add(key, entry)
	c.observe(sourceUpload, "miss")
	return entry, false, nil
}

// get returns a previously uploaded dataset.
func (c *tableCache) get(key string) (*datasetEntry, bool) {
	entry, ok := c.entries.Get(key)
	if ok {
		c.observe(entry.Source, "hit")
	}
	return entry, ok
}

func (c *tableCache) observe(source, outcome string) {
	if c.metrics != nil {
		c.metrics.datasetLoads.WithLabelValues(source, outcome).Inc()
	}
}

func newEntry(key, source, name string, table *dataset.Table) *datasetEntry {
	indices, tipos := table.Infer()
	return &datasetEntry{
		Key:      key,
		Source:   source,
		Name:     name,
		Table:    table,
		Indices:  indices,
		Tipos:    tipos,
		LoadedAt: time.Now(),
	}
}
