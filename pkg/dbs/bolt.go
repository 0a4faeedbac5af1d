package dbs

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	expiryPrefixBytes      = 8
	defaultCleanupInterval = 12 * time.Hour
)

// BoltOptions configures a bbolt-backed key/value wrapper.
type BoltOptions struct {
	Path                   string   `mapstructure:"path" validate:"required"`
	Buckets                []string `mapstructure:"buckets"`
	TTLSeconds             int64    `mapstructure:"ttl_seconds" validate:"gte=0"`
	CleanupIntervalSeconds int64    `mapstructure:"cleanup_interval_seconds" validate:"gte=0"`
}

// BoltDB stores values in named buckets. With a TTL configured every value carries an
// expiry; expired entries read as missing and are swept on a fixed cadence.
type BoltDB struct {
	name            string
	db              *bolt.DB
	ttl             time.Duration
	cleanupInterval time.Duration
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	now             func() time.Time
}

// NewBolt opens (creating if needed) the bbolt file and its configured buckets.
func NewBolt(name string, opts BoltOptions) (*BoltDB, error) {
	dir := filepath.Dir(opts.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bbolt directory: %w", err)
		}
	}

	db, err := bolt.Open(opts.Path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db %q: %w", name, err)
	}
	if len(opts.Buckets) > 0 {
		if err := db.Update(func(tx *bolt.Tx) error {
			for _, b := range opts.Buckets {
				if _, err := tx.CreateBucketIfNotExists([]byte(b)); err != nil {
					return fmt.Errorf("bucket %q: %w", b, err)
				}
			}
			return nil
		}); err != nil {
			db.Close()
			return nil, fmt.Errorf("init buckets: %w", err)
		}
	}

	store := &BoltDB{
		name:            name,
		db:              db,
		ttl:             time.Duration(opts.TTLSeconds) * time.Second,
		cleanupInterval: time.Duration(opts.CleanupIntervalSeconds) * time.Second,
		now:             time.Now,
	}
	if store.cleanupInterval <= 0 {
		store.cleanupInterval = defaultCleanupInterval
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Get returns the value stored under key. ok is false for missing or expired keys.
func (b *BoltDB) Get(bucket, key string) ([]byte, bool, error) {
	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, false, err
	}

	var (
		out []byte
		ok  bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucket))
		if bk == nil {
			return nil
		}
		raw := bk.Get([]byte(key))
		if raw == nil {
			return nil
		}
		val, live := decodeValue(raw, now)
		if !live {
			return bk.Delete([]byte(key))
		}
		out = append([]byte(nil), val...)
		ok = true
		return nil
	})
	return out, ok, err
}

// Put stores value under key, creating the bucket on demand.
func (b *BoltDB) Put(bucket, key string, value []byte) error {
	if bucket == "" || key == "" {
		return errors.New("bucket and key are required")
	}
	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	var expiry int64
	if b.ttl > 0 {
		expiry = now.Add(b.ttl).Unix()
	}
	buf := make([]byte, expiryPrefixBytes+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expiry))
	copy(buf[expiryPrefixBytes:], value)

	return b.db.Update(func(tx *bolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return bk.Put([]byte(key), buf)
	})
}

// Delete removes key from bucket. Missing keys are not an error.
func (b *BoltDB) Delete(bucket, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucket))
		if bk == nil {
			return nil
		}
		return bk.Delete([]byte(key))
	})
}

// Keys lists the live keys of bucket in byte order.
func (b *BoltDB) Keys(bucket string) ([]string, error) {
	now := b.now()
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucket))
		if bk == nil {
			return nil
		}
		return bk.ForEach(func(k, v []byte) error {
			if _, live := decodeValue(v, now); live {
				keys = append(keys, string(k))
			}
			return nil
		})
	})
	return keys, err
}

// Ping reports whether the database file is still open.
func (b *BoltDB) Ping(context.Context) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("bbolt db is not open")
	}
	return b.db.View(func(*bolt.Tx) error { return nil })
}

// Close closes the bbolt file.
func (b *BoltDB) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// maybeCleanupExpired sweeps expired keys from every bucket at most once per cleanup interval.
func (b *BoltDB) maybeCleanupExpired(now time.Time) error {
	if b.ttl <= 0 {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.ForEach(func(_ []byte, bk *bolt.Bucket) error {
			cursor := bk.Cursor()
			for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
				if _, live := decodeValue(v, now); !live {
					if err := cursor.Delete(); err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeValue splits the expiry prefix from the payload. A zero expiry never expires.
func decodeValue(raw []byte, now time.Time) ([]byte, bool) {
	if len(raw) < expiryPrefixBytes {
		return nil, false
	}
	expiry := int64(binary.BigEndian.Uint64(raw[:expiryPrefixBytes]))
	if expiry != 0 && !time.Unix(expiry, 0).After(now) {
		return nil, false
	}
	return raw[expiryPrefixBytes:], true
}
