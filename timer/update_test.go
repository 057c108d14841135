package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/studytime/internal/clock/clocktest"
	"github.com/ayoisaiah/studytime/internal/mode"
	"github.com/ayoisaiah/studytime/internal/models"
	"github.com/ayoisaiah/studytime/score"
)

type fakeRecorder struct {
	err     error
	snap    Snapshot
	details Details
	calls   int
}

func (r *fakeRecorder) Record(_ context.Context, s Snapshot, d Details) (*models.Session, score.Breakdown, error) {
	r.calls++
	r.snap = s
	r.details = d

	if r.err != nil {
		return nil, score.Breakdown{}, r.err
	}

	return &models.Session{ID: "s1"}, score.Breakdown{Total: 42}, nil
}

func newTestModel(t *testing.T, cfg mode.Config, opts ...ModelOption) (*Model, *clocktest.Clock, *fakeRecorder) {
	t.Helper()

	c := clocktest.NewClock(time.Date(2024, 3, 4, 9, 0, 0, 0, time.Local))

	tm := New(cfg,
		WithClock(c),
		WithScheduler(clocktest.NewScheduler(c)),
		WithTickInterval(time.Second),
	)

	rec := &fakeRecorder{}
	m := NewModel(context.Background(), tm, rec, opts...)
	m.Init()

	return m, c, rec
}

func press(m *Model, k string) {
	var msg tea.KeyMsg

	switch k {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}

	m.Update(msg)
}

func TestModelKeysDriveTheTimer(t *testing.T) {
	m, c, _ := newTestModel(t, mode.Countdown{Duration: 2 * time.Minute})

	require.Equal(t, StatusRunning, m.snap.Status)

	c.Advance(10 * time.Second)
	press(m, " ")
	assert.Equal(t, StatusPaused, m.snap.Status)
	assert.Equal(t, 10*time.Second, m.snap.Elapsed)

	press(m, " ")
	assert.Equal(t, StatusRunning, m.snap.Status)

	press(m, "r")
	assert.Equal(t, StatusIdle, m.snap.Status)

	press(m, "enter")
	assert.Equal(t, StatusRunning, m.snap.Status)

	press(m, "f")
	assert.Equal(t, StatusFinished, m.snap.Status)
	assert.Equal(t, stageForm, m.stage)
	assert.NotNil(t, m.form)
}

func TestModelSavesFinishedSession(t *testing.T) {
	m, c, rec := newTestModel(t, mode.Exam{Sections: []mode.Section{
		{Name: "Reading", Duration: time.Minute},
	}})

	c.Advance(30 * time.Second)
	press(m, "f")
	require.Equal(t, stageForm, m.stage)

	m.answers.note = "  past paper  "
	m.answers.mood = models.MoodGood
	m.answers.correct = "7"
	m.answers.total = "10"

	msg := m.record(m.snap, m.answers)()
	m.Update(msg)

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 30*time.Second, rec.snap.TotalElapsed())
	assert.Equal(t, Details{
		Note:        "past paper",
		Mood:        models.MoodGood,
		Correctness: &models.Correctness{Correct: 7, Total: 10},
	}, rec.details)

	assert.Equal(t, stageDone, m.stage)
	assert.Equal(t, 42, m.score.Total)
	assert.Contains(t, m.View(), "42 points")

	press(m, "enter")
	assert.Equal(t, stageTimer, m.stage)
	assert.Equal(t, StatusRunning, m.snap.Status)
}

func TestModelShowsRecorderErrors(t *testing.T) {
	m, _, rec := newTestModel(t, mode.Free{})
	rec.err = errors.New("disk full")

	press(m, "f")
	require.Equal(t, stageForm, m.stage)

	m.Update(m.record(m.snap, m.answers)())

	assert.Equal(t, stageDone, m.stage)
	assert.Contains(t, m.View(), "disk full")
}

func TestModelFocusRepairsSuspendedTimer(t *testing.T) {
	m, c, _ := newTestModel(t, mode.Countdown{Duration: 2 * time.Minute})

	// No callbacks fire while the terminal is suspended.
	c.Advance(5 * time.Minute)
	m.Update(tea.FocusMsg{})

	assert.Equal(t, StatusFinished, m.snap.Status)
	assert.True(t, m.snap.CompletedFully())
	assert.Equal(t, 2*time.Minute, m.snap.Elapsed)
	assert.Equal(t, stageForm, m.stage)
}

func TestModelRunsScheduledCallbacks(t *testing.T) {
	m, _, _ := newTestModel(t, mode.Free{})

	ran := false
	m.Update(Callback(func() { ran = true }))

	assert.True(t, ran)
}

func TestModelSwitchesMode(t *testing.T) {
	countdown := mode.Countdown{Duration: time.Minute}

	m, _, _ := newTestModel(t, countdown, WithModes(countdown, mode.Free{}))

	press(m, "m")
	assert.Equal(t, mode.KindFree, m.snap.Mode.Kind())
	assert.Equal(t, StatusIdle, m.snap.Status)

	press(m, "m")
	assert.Equal(t, mode.KindCountdown, m.snap.Mode.Kind())
}

func TestExamBreakKeys(t *testing.T) {
	m, c, _ := newTestModel(t, mode.Exam{Sections: []mode.Section{
		{Name: "Reading", Duration: time.Minute},
		{Name: "Writing", Duration: time.Minute},
	}})

	c.Advance(time.Minute)
	m.Update(tea.FocusMsg{})
	require.True(t, m.snap.InExamBreak())
	assert.Contains(t, m.View(), "Section break")

	c.Advance(5 * time.Second)
	press(m, " ")

	assert.Equal(t, 1, m.snap.SectionIndex)
	assert.Equal(t, []int{5}, m.snap.SectionBreaks)
	assert.Equal(t, StatusRunning, m.snap.Status)
}

func TestSaveAnswersDetails(t *testing.T) {
	cases := []struct {
		name    string
		answers saveAnswers
		want    *models.Correctness
		wantErr bool
	}{
		{"no counters", saveAnswers{}, nil, false},
		{"counters", saveAnswers{correct: "3", total: "4"}, &models.Correctness{Correct: 3, Total: 4}, false},
		{"correct above total", saveAnswers{correct: "5", total: "4"}, nil, true},
		{"not a number", saveAnswers{correct: "many", total: "4"}, nil, true},
		{"negative", saveAnswers{correct: "-1", total: "4"}, nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := tc.answers.details()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Correctness)
		})
	}
}

type mapKV map[string][]byte

func (kv mapKV) Get(key string) ([]byte, error) { return kv[key], nil }

func (kv mapKV) Put(key string, value []byte) error {
	kv[key] = value
	return nil
}

func (kv mapKV) Delete(key string) error {
	delete(kv, key)
	return nil
}

func TestModelKeepsCycleRestoredAfterRestart(t *testing.T) {
	wb := mode.WorkBreak{Work: 25 * time.Minute, Break: 5 * time.Minute}
	c := clocktest.NewClock(time.Date(2024, 3, 4, 9, 0, 0, 0, time.Local))
	kv := mapKV{}

	build := func() *Timer {
		return New(wb,
			WithClock(c),
			WithScheduler(clocktest.NewScheduler(c)),
			WithRecoveryStore(kv),
			WithTickInterval(time.Second),
		)
	}

	first := build()
	first.Start()
	c.Advance(10 * time.Minute)
	first.Pause()
	first.Close()

	m := NewModel(context.Background(), build(), &fakeRecorder{})
	m.Init()

	assert.Equal(t, StatusPaused, m.snap.Status)
	assert.Equal(t, 10*time.Minute, m.snap.Elapsed)
	assert.Equal(t, 1, m.snap.Pauses)

	press(m, " ")
	assert.Equal(t, StatusRunning, m.snap.Status)

	c.Advance(time.Minute)
	m.timer.Reevaluate()
	assert.Equal(t, 11*time.Minute, m.timer.Snapshot().Elapsed)
}
