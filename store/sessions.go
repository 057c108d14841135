package store

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/studytime/internal/models"
)

// PutSession creates or overwrites a session record.
func (c *Client) PutSession(sess *models.Session) error {
	value, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Put([]byte(sess.ID), value)
	})
}

// GetSession returns the session with the given id.
func (c *Client) GetSession(id string) (*models.Session, error) {
	var sess *models.Session

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(sessionBucket)).Get([]byte(id))
		if v == nil {
			return ErrSessionNotFound.Fmt(id)
		}

		sess = &models.Session{}

		return json.Unmarshal(v, sess)
	})
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// Sessions returns every stored session in key order.
func (c *Client) Sessions() ([]models.Session, error) {
	var sessions []models.Session

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).ForEach(func(_, v []byte) error {
			var sess models.Session

			if err := json.Unmarshal(v, &sess); err != nil {
				return err
			}

			sessions = append(sessions, sess)

			return nil
		})
	})

	return sessions, err
}

// DeleteSession removes the session with the given id.
func (c *Client) DeleteSession(id string) error {
	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))

		if b.Get([]byte(id)) == nil {
			return ErrSessionNotFound.Fmt(id)
		}

		return b.Delete([]byte(id))
	})
}

// ClearSessions removes every session record. The sync queue is left alone.
func (c *Client) ClearSessions() error {
	return c.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(sessionBucket)); err != nil {
			return err
		}

		_, err := tx.CreateBucket([]byte(sessionBucket))

		return err
	})
}
