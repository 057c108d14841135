// Package models defines the records that are persisted locally and sent to
// the remote backend.
package models

import (
	"time"

	"github.com/ayoisaiah/studytime/internal/mode"
)

// Mood is an optional self-assessment attached to a saved session.
type Mood string

const (
	MoodGreat      Mood = "great"
	MoodGood       Mood = "good"
	MoodOkay       Mood = "okay"
	MoodTired      Mood = "tired"
	MoodStruggling Mood = "struggling"
)

// Moods lists the selectable moods.
var Moods = []Mood{MoodGreat, MoodGood, MoodOkay, MoodTired, MoodStruggling}

// Correctness holds the optional exam answer counters.
type Correctness struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Session is a finalised study session. It is immutable once written.
type Session struct {
	CompletedAt time.Time `json:"completed_at"`
	// PlannedSeconds is nil for untimed sessions.
	PlannedSeconds *int         `json:"planned_seconds,omitempty"`
	Correctness    *Correctness `json:"correctness,omitempty"`
	ID             string       `json:"id"`
	Mode           mode.Kind    `json:"mode"`
	Note           string       `json:"note,omitempty"`
	Mood           Mood         `json:"mood,omitempty"`
	// SectionBreaks holds the length of each inter-section break in exam
	// mode, in seconds.
	SectionBreaks  []int `json:"section_breaks,omitempty"`
	ElapsedSeconds int   `json:"elapsed_seconds"`
	Score          int   `json:"score"`
	Pauses         int   `json:"pauses"`
}

// Action is the kind of mutation a sync queue entry carries.
type Action string

const (
	ActionUpsert Action = "upsert_session"
	ActionDelete Action = "delete_session"
)

// SyncEntry is a pending outbound mutation.
type SyncEntry struct {
	CreatedAt time.Time `json:"created_at"`
	// NextAttemptAt is zero when the entry may be attempted immediately.
	NextAttemptAt time.Time `json:"next_attempt_at,omitempty"`
	// Payload is a copy of the record frozen at enqueue time. It is nil for
	// deletions.
	Payload    *Session `json:"payload,omitempty"`
	ID         string   `json:"id"`
	Action     Action   `json:"action"`
	SessionID  string   `json:"session_id"`
	LastError  string   `json:"last_error,omitempty"`
	RetryCount int      `json:"retry_count"`
	IsFailed   bool     `json:"is_failed"`
}

// SyncStatus summarises the delivery state of a session.
type SyncStatus string

const (
	SyncSynced  SyncStatus = "synced"
	SyncPending SyncStatus = "pending"
	SyncFailed  SyncStatus = "failed"
)

// Row is a session as delivered to the remote backend, owned by UserID.
type Row struct {
	Session
	UserID string `json:"user_id"`
}
