package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/ayoisaiah/studytime/history"
	"github.com/ayoisaiah/studytime/internal/clock"
	"github.com/ayoisaiah/studytime/internal/mode"
	"github.com/ayoisaiah/studytime/internal/models"
	"github.com/ayoisaiah/studytime/internal/timeutil"
	"github.com/ayoisaiah/studytime/score"
	"github.com/ayoisaiah/studytime/timer"
)

// recorder scores finished sessions and writes them to the history. It
// implements timer.Recorder.
type recorder struct {
	history    *history.Store
	clock      clock.Clock
	log        *slog.Logger
	afterSave  func()
	sessionCmd string
}

// toSession converts a finished snapshot into a record, without a score.
func toSession(s timer.Snapshot, d timer.Details, now time.Time) *models.Session {
	sess := &models.Session{
		CompletedAt:    now,
		Mode:           s.Mode.Kind(),
		ElapsedSeconds: timeutil.Seconds(s.TotalElapsed()),
		Pauses:         s.Pauses,
		SectionBreaks:  slices.Clone(s.SectionBreaks),
		Note:           d.Note,
		Mood:           d.Mood,
		Correctness:    d.Correctness,
	}

	if planned, ok := s.TotalPlanned(); ok {
		p := timeutil.Seconds(planned)
		sess.PlannedSeconds = &p
	}

	return sess
}

// priorCycles is the number of work/break cycles completed today before
// the one that just finished.
func priorCycles(s timer.Snapshot) int {
	if s.Mode.Kind() != mode.KindWorkBreak {
		return 0
	}

	return max(0, s.CycleIndex-1)
}

func (r *recorder) Record(
	ctx context.Context,
	s timer.Snapshot,
	d timer.Details,
) (*models.Session, score.Breakdown, error) {
	now := r.clock.Now()
	sess := toSession(s, d, now)

	streak, err := r.history.Streak(ctx, now)
	if err != nil {
		r.log.WarnContext(ctx, "computing streak failed", "error", err)
	}

	b := score.Compute(score.Input{
		PlannedSeconds:   sess.PlannedSeconds,
		Mode:             sess.Mode,
		ElapsedSeconds:   sess.ElapsedSeconds,
		Pauses:           sess.Pauses,
		PriorCyclesToday: priorCycles(s),
		StreakDays:       streak,
		CompletedFully:   s.CompletedFully(),
	})

	sess.Score = b.Total

	if err := r.history.Put(ctx, sess); err != nil {
		return nil, b, err
	}

	r.log.InfoContext(ctx, "session saved",
		slog.String("session_id", sess.ID),
		slog.String("mode", string(sess.Mode)),
		slog.Int("elapsed_seconds", sess.ElapsedSeconds),
		slog.Int("score", sess.Score),
	)

	if r.afterSave != nil {
		r.afterSave()
	}

	r.runSessionCmd(ctx, sess)

	return sess, b, nil
}

// buildSessionCmd builds the post-save hook. The session is described to the
// command through STUDYTIME_* environment variables.
func (r *recorder) buildSessionCmd(ctx context.Context, sess *models.Session) (*exec.Cmd, error) {
	args, err := shellquote.Split(r.sessionCmd)
	if err != nil {
		return nil, fmt.Errorf("unable to parse session_cmd: %w", err)
	}

	if len(args) == 0 {
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = append(os.Environ(),
		"STUDYTIME_SESSION_ID="+sess.ID,
		"STUDYTIME_MODE="+string(sess.Mode),
		"STUDYTIME_ELAPSED_SECONDS="+strconv.Itoa(sess.ElapsedSeconds),
		"STUDYTIME_SCORE="+strconv.Itoa(sess.Score),
	)

	return cmd, nil
}

// runSessionCmd runs the hook with its output captured, since the terminal
// belongs to the timer UI. Failures are only logged.
func (r *recorder) runSessionCmd(ctx context.Context, sess *models.Session) {
	cmd, err := r.buildSessionCmd(ctx, sess)
	if err != nil {
		r.log.WarnContext(ctx, "session command skipped", "error", err)
		return
	}

	if cmd == nil {
		return
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		r.log.WarnContext(ctx, "session command failed",
			slog.String("cmd", r.sessionCmd),
			slog.String("output", string(out)),
			slog.Any("error", err),
		)

		return
	}

	r.log.DebugContext(ctx, "session command finished", slog.String("output", string(out)))
}
