package memory

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("memory")

// BoltStore keeps records in a bbolt file so large values stay off-heap.
// The file is a scratch area: OpenBolt discards anything left from a previous
// process and Close removes it, so records still live only as long as the
// store. The path must be unique per process; a file whose lock is held by
// another live store is refused. List returns entries in key order.
type BoltStore struct {
	db   *bolt.DB
	path string
	now  func() time.Time
}

// OpenBolt opens a scratch database at path and empties it. The bbolt file
// lock is taken before anything is discarded, so a file still held by
// another store fails with a timeout instead of being clobbered.
func OpenBolt(path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("memory: bolt backend requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create store directory")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(boltBucket) != nil {
			if err := tx.DeleteBucket(boltBucket); err != nil {
				return err
			}
		}
		_, err := tx.CreateBucket(boltBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "reset bucket")
	}
	return &BoltStore{db: db, path: path, now: time.Now}, nil
}

// Layout: 8 bytes big endian storedAt (unix nanos) || raw JSON value.
func encodeRecord(rec Record) []byte {
	buf := make([]byte, 8+len(rec.Value))
	binary.BigEndian.PutUint64(buf[:8], uint64(rec.StoredAt.UnixNano()))
	copy(buf[8:], rec.Value)
	return buf
}

func decodeRecord(v []byte) (Record, error) {
	if len(v) < 8 {
		return Record{}, errors.New("memory: corrupt record")
	}
	return Record{
		Value:    append(json.RawMessage(nil), v[8:]...),
		StoredAt: time.Unix(0, int64(binary.BigEndian.Uint64(v[:8]))),
	}, nil
}

func (s *BoltStore) Put(key string, value json.RawMessage) (Record, error) {
	if err := validate(key, value); err != nil {
		return Record{}, err
	}
	rec := Record{Value: clone(bytes.TrimSpace(value)), StoredAt: s.now()}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), encodeRecord(rec))
	})
	if err != nil {
		return Record{}, errors.Wrapf(err, "put %q", key)
	}
	return rec, nil
}

func (s *BoltStore) Get(key string) (Record, error) {
	var (
		rec    Record
		exists bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		exists = true
		var err error
		rec, err = decodeRecord(v)
		return err
	})
	if err != nil {
		return Record{}, errors.Wrapf(err, "get %q", key)
	}
	if !exists {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *BoltStore) List() ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		out = make([]Entry, 0, b.Stats().KeyN)
		return b.ForEach(func(k, v []byte) error {
			rec, err := decodeRecord(v)
			if err != nil {
				return errors.Wrapf(err, "key %q", k)
			}
			out = append(out, Entry{Key: string(k), Record: rec})
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "list")
	}
	return out, nil
}

// Close removes the database file while still holding its lock, then
// closes it.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	rmErr := os.Remove(s.path)
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "close store")
	}
	if rmErr != nil && !os.IsNotExist(rmErr) {
		return errors.Wrap(rmErr, "remove store file")
	}
	return nil
}
