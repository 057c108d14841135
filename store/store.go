// Package store persists session records, the sync queue and small
// key-value records in a BoltDB file.
package store

import (
	"errors"
	"io/fs"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/studytime/internal/osutil"
)

const (
	sessionBucket = "sessions"
	queueBucket   = "sync_queue"
	kvBucket      = "kv"
)

var buckets = []string{sessionBucket, queueBucket, kvBucket}

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

// open creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	var fileMode fs.FileMode = osutil.PrivateFilePermission

	db, err := bolt.Open(
		pathToDB,
		fileMode,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseOpen) ||
			errors.Is(err, bolt.ErrTimeout) {
			return nil, errAlreadyRunning
		}

		return nil, err
	}

	return db, nil
}

// NewClient opens the database at dbPath and creates the buckets that do not
// exist yet.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Client{db}, nil
}

// Get returns the value stored under key, or nil if there is none.
func (c *Client) Get(key string) ([]byte, error) {
	var value []byte

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(kvBucket)).Get([]byte(key))
		if v != nil {
			// bolt values are only valid for the life of the transaction
			value = append([]byte(nil), v...)
		}

		return nil
	})

	return value, err
}

// Put stores value under key.
func (c *Client) Put(key string, value []byte) error {
	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kvBucket)).Put([]byte(key), value)
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Client) Delete(key string) error {
	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kvBucket)).Delete([]byte(key))
	})
}
