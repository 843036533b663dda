// Package memory holds the key/value records written through the memory
// endpoints. Records live only as long as the Store that owns them.
package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("memory: not found")
	ErrInvalid  = errors.New("memory: invalid entry")
)

// Record is the value stored under a key and the time it was written.
type Record struct {
	Value    json.RawMessage
	StoredAt time.Time
}

// Entry pairs a key with its current record.
type Entry struct {
	Key string
	Record
}

// Store defines the key/value contract shared by all backends.
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// Put inserts or fully replaces the record for key and returns it.
	Put(key string, value json.RawMessage) (Record, error)
	// Get returns ErrNotFound when key was never written.
	Get(key string) (Record, error)
	// List returns a snapshot of every entry.
	List() ([]Entry, error)
	Close() error
}

type Options struct {
	// Backend is "memory" (default) or "bolt".
	Backend string
	// Path is the scratch file used by the bolt backend.
	Path string
}

// Open returns the Store selected by opts.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "bolt":
		return OpenBolt(opts.Path)
	default:
		return nil, fmt.Errorf("memory: unknown backend %q", opts.Backend)
	}
}

// validate rejects empty keys and missing or null values.
func validate(key string, value json.RawMessage) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalid)
	}
	v := bytes.TrimSpace(value)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return fmt.Errorf("%w: value is required", ErrInvalid)
	}
	if !json.Valid(v) {
		return fmt.Errorf("%w: value is not valid JSON", ErrInvalid)
	}
	return nil
}

func clone(v json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), v...)
}
