package store

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/studytime/internal/models"
)

// ReplaceQueueEntry deletes every queued entry for the same session and
// inserts e, in a single transaction.
func (c *Client) ReplaceQueueEntry(e *models.SyncEntry) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(queueBucket))

		var stale [][]byte

		err := b.ForEach(func(k, v []byte) error {
			var existing models.SyncEntry

			if err := json.Unmarshal(v, &existing); err != nil {
				return err
			}

			if existing.SessionID == e.SessionID {
				stale = append(stale, append([]byte(nil), k...))
			}

			return nil
		})
		if err != nil {
			return err
		}

		// deleting while iterating with ForEach is not allowed
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		return b.Put([]byte(e.ID), value)
	})
}

// QueueEntries returns every queued entry in key order.
func (c *Client) QueueEntries() ([]models.SyncEntry, error) {
	var entries []models.SyncEntry

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(queueBucket)).ForEach(func(_, v []byte) error {
			var e models.SyncEntry

			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}

			entries = append(entries, e)

			return nil
		})
	})

	return entries, err
}

// QueueEntry returns the entry with the given id.
func (c *Client) QueueEntry(id string) (*models.SyncEntry, error) {
	var e *models.SyncEntry

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(queueBucket)).Get([]byte(id))
		if v == nil {
			return ErrEntryNotFound.Fmt(id)
		}

		e = &models.SyncEntry{}

		return json.Unmarshal(v, e)
	})
	if err != nil {
		return nil, err
	}

	return e, nil
}

// UpdateQueueEntry overwrites an existing entry. An entry that was removed
// in the meantime is not recreated.
func (c *Client) UpdateQueueEntry(e *models.SyncEntry) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(queueBucket))

		if b.Get([]byte(e.ID)) == nil {
			return ErrEntryNotFound.Fmt(e.ID)
		}

		return b.Put([]byte(e.ID), value)
	})
}

// DeleteQueueEntry removes the entry with the given id. Deleting a missing
// entry is not an error.
func (c *Client) DeleteQueueEntry(id string) error {
	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(queueBucket)).Delete([]byte(id))
	})
}
