package timer

import (
	"encoding/json"
	"time"

	"github.com/ayoisaiah/studytime/internal/mode"
)

// RecoveryKey is the storage key of the work/break recovery record.
const RecoveryKey = "work_break_cycle_recovery"

// KV is the durable key-value storage used for the recovery record. Get
// returns a nil slice and no error for a missing key.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// recoveryRecord is the persisted progress of an abandoned work/break cycle.
type recoveryRecord struct {
	PlannedMs          *int64     `json:"planned_ms,omitempty"`
	Phase              mode.Phase `json:"phase"`
	Status             Status     `json:"status"`
	Day                string     `json:"day"`
	ElapsedMs          int64      `json:"elapsed_ms"`
	RemainingMs        int64      `json:"remaining_ms"`
	BreakAccumulatedMs int64      `json:"break_accumulated_ms"`
	Pauses             int        `json:"pauses"`
	CycleIndex         int        `json:"cycle_index"`
}

func (t *Timer) saveRecovery(s Snapshot) {
	if t.kv == nil {
		return
	}

	rec := recoveryRecord{
		ElapsedMs:          s.Elapsed.Milliseconds(),
		RemainingMs:        s.Remaining.Milliseconds(),
		Phase:              s.Phase,
		Status:             s.Status,
		Pauses:             s.Pauses,
		CycleIndex:         s.CycleIndex,
		BreakAccumulatedMs: s.BreakAccumulated.Milliseconds(),
		Day:                s.CycleDate,
	}

	if s.Timed {
		ms := s.Planned.Milliseconds()
		rec.PlannedMs = &ms
	}

	b, err := json.Marshal(rec)
	if err != nil {
		t.log.Warn("encoding recovery record failed", "error", err)
		return
	}

	if err := t.kv.Put(RecoveryKey, b); err != nil {
		t.log.Warn("saving recovery record failed", "error", err)
		return
	}

	t.log.Debug(
		"saved work/break recovery record",
		"day", rec.Day,
		"cycle_index", rec.CycleIndex,
		"phase", rec.Phase,
	)
}

// restore applies a recovery record saved on today and deletes it. A record
// from another day is discarded. It reports whether the snapshot was
// restored.
func (t *Timer) restore(today string) bool {
	if t.kv == nil {
		return false
	}

	b, err := t.kv.Get(RecoveryKey)
	if err != nil {
		t.log.Warn("reading recovery record failed", "error", err)
		return false
	}

	if len(b) == 0 {
		return false
	}

	if err := t.kv.Delete(RecoveryKey); err != nil {
		t.log.Warn("deleting recovery record failed", "error", err)
	}

	var rec recoveryRecord

	if err := json.Unmarshal(b, &rec); err != nil {
		t.log.Warn("decoding recovery record failed", "error", err)
		return false
	}

	if rec.Day != today {
		t.log.Debug("discarded stale recovery record", "day", rec.Day)
		return false
	}

	s := &t.snap

	s.Elapsed = time.Duration(rec.ElapsedMs) * time.Millisecond
	s.Remaining = time.Duration(rec.RemainingMs) * time.Millisecond
	s.Planned, s.Timed = 0, false

	if rec.PlannedMs != nil {
		s.Planned = time.Duration(*rec.PlannedMs) * time.Millisecond
		s.Timed = true
	}

	s.Phase = rec.Phase
	s.Status = rec.Status
	s.Pauses = rec.Pauses
	s.CycleIndex = rec.CycleIndex
	s.BreakAccumulated = time.Duration(rec.BreakAccumulatedMs) * time.Millisecond
	s.CycleDate = rec.Day
	s.LastTick = time.Time{}

	// Nothing was ticking while the record sat in storage.
	if s.Status == StatusRunning {
		s.Status = StatusPaused
	}

	return true
}
