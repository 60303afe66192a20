package store

import (
	"context"
	"encoding/json"
	"log"
)

// Record is anything a Collection can manage. The sequential ID scheme
// (max+1, see NextID) only considers records whose RecordID is positive.
type Record interface {
	RecordID() int64
}

// Order declares which end of a collection holds its oldest records, so cap
// eviction knows which end to drop from.
type Order int

const (
	// OldestFirst collections append new records at the tail.
	OldestFirst Order = iota
	// NewestFirst collections prepend new records at the head.
	NewestFirst
)

// Collection binds one record type to one KV key. Load degrades to an empty
// slice on any read or decode problem; Save caps the collection and surfaces
// failures as *StorageError. A zero MaxRecords means no cap.
type Collection[T Record] struct {
	kv         KV
	key        string
	order      Order
	maxRecords int
	logger     *log.Logger
}

func NewCollection[T Record](kv KV, key string, order Order, maxRecords int, logger *log.Logger) *Collection[T] {
	return &Collection[T]{
		kv:         kv,
		key:        key,
		order:      order,
		maxRecords: maxRecords,
		logger:     logger,
	}
}

func (c *Collection[T]) Key() string { return c.key }

// Load reads and deserializes the collection. Corruption must never crash a
// caller: read errors, malformed JSON and non-array payloads all degrade to
// an empty collection, logged internally.
func (c *Collection[T]) Load(ctx context.Context) []T {
	raw, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		c.logf("load %s: substrate error, starting empty: %v", c.key, err)
		return []T{}
	}
	if !ok || raw == "" {
		return []T{}
	}

	var records []T
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		c.logf("load %s: corrupted payload, starting empty: %v", c.key, err)
		return []T{}
	}
	if records == nil {
		records = []T{}
	}
	return records
}

// Save serializes and writes the collection, truncating to the cap first by
// dropping the oldest entries.
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	records = c.Cap(records)

	data, err := json.Marshal(records)
	if err != nil {
		return &StorageError{Kind: KindCorrupted, Op: "save " + c.key, Err: err}
	}
	if err := c.kv.Set(ctx, c.key, string(data)); err != nil {
		return wrapStorage("save "+c.key, err)
	}
	return nil
}

// Cap truncates records to the configured maximum, dropping from whichever
// end holds the oldest entries.
func (c *Collection[T]) Cap(records []T) []T {
	if c.maxRecords <= 0 || len(records) <= c.maxRecords {
		return records
	}
	if c.order == NewestFirst {
		return records[:c.maxRecords]
	}
	return records[len(records)-c.maxRecords:]
}

// NextID returns max(existing ids, 0) + 1. IDs currently present in the
// collection are never handed out again.
func (c *Collection[T]) NextID(records []T) int64 {
	var max int64
	for _, r := range records {
		if id := r.RecordID(); id > max {
			max = id
		}
	}
	return max + 1
}

func (c *Collection[T]) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
