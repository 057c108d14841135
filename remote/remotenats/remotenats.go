// Package remotenats is a sync backend publishing session mutations to a
// NATS JetStream stream.
package remotenats

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/ayoisaiah/studytime/internal/apperr"
	"github.com/ayoisaiah/studytime/internal/models"
)

// StreamName is the JetStream stream holding session mutations.
const StreamName = "STUDYTIME"

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "studytime"

var errNotConnected = &apperr.Error{
	Message: "not connected to NATS",
}

// Backend implements syncq.Backend and syncq.Notifier.
type Backend struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	log     *slog.Logger
	changes chan bool
	prefix  string
	mu      sync.Mutex
	stream  bool
}

// Connect dials url. The connection keeps retrying in the background, so an
// unreachable server is not an error here.
func Connect(url, prefix string, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if prefix == "" {
		prefix = DefaultPrefix
	}

	b := &Backend{
		log:     log,
		prefix:  prefix,
		changes: make(chan bool, 1),
	}

	nc, err := nats.Connect(url,
		nats.Name("studytime"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ConnectHandler(func(*nats.Conn) {
			b.log.Info("connected to NATS")
			b.notify(true)
		}),
		nats.ReconnectHandler(func(*nats.Conn) {
			b.log.Info("reconnected to NATS")
			b.notify(true)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			b.log.Warn("disconnected from NATS", "error", err)
			b.notify(false)
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			b.notify(false)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	b.nc = nc
	b.js = js

	return b, nil
}

// notify publishes the latest connectivity state, dropping a stale one that
// was not consumed yet.
func (b *Backend) notify(online bool) {
	for {
		select {
		case b.changes <- online:
			return
		default:
		}

		select {
		case <-b.changes:
		default:
		}
	}
}

// Connectivity reports connection changes.
func (b *Backend) Connectivity() <-chan bool {
	return b.changes
}

// ensureStream creates the stream once per process.
func (b *Backend) ensureStream(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream {
		return nil
	}

	_, err := b.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{b.prefix + ".>"},
		Storage:    jetstream.FileStorage,
		Retention:  jetstream.LimitsPolicy,
		Duplicates: 10 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", StreamName, err)
	}

	b.stream = true

	return nil
}

// Upsert publishes the row on <prefix>.upsert.<user>.
func (b *Backend) Upsert(ctx context.Context, row *models.Row) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", row.ID, err)
	}

	return b.publish(ctx, subject(b.prefix, "upsert", row.UserID), data, upsertID(row.ID, data))
}

type deletion struct {
	DeletedAt time.Time `json:"deleted_at"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
}

// SoftDelete publishes a deletion marker on <prefix>.delete.<user>.
func (b *Backend) SoftDelete(ctx context.Context, userID, sessionID string) error {
	data, err := json.Marshal(deletion{
		ID:        sessionID,
		UserID:    userID,
		DeletedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return b.publish(ctx, subject(b.prefix, "delete", userID), data, "delete:"+sessionID)
}

func (b *Backend) publish(ctx context.Context, subj string, data []byte, id string) error {
	if err := b.ensureStream(ctx); err != nil {
		return err
	}

	// the message id lets the server drop a retried publish that already
	// landed
	_, err := b.js.Publish(ctx, subj, data, jetstream.WithMsgID(id))
	if err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subj, err)
	}

	return nil
}

// Ping checks that the connection is up and responsive.
func (b *Backend) Ping(ctx context.Context) error {
	if !b.nc.IsConnected() {
		return errNotConnected
	}

	return b.nc.FlushWithContext(ctx)
}

// Close closes the connection.
func (b *Backend) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}

var tokenReplacer = strings.NewReplacer(
	".", "_",
	"*", "_",
	">", "_",
	" ", "_",
	"\t", "_",
)

// subject builds <prefix>.<action>.<user> with the user id made safe as a
// single subject token.
func subject(prefix, action, userID string) string {
	return prefix + "." + action + "." + tokenReplacer.Replace(userID)
}

// upsertID identifies one version of a session, so distinct edits of the
// same session are never deduplicated against each other.
func upsertID(sessionID string, data []byte) string {
	sum := sha256.Sum256(data)

	return "upsert:" + sessionID + ":" + hex.EncodeToString(sum[:8])
}
