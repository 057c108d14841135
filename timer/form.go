package timer

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/ayoisaiah/studytime/internal/mode"
	"github.com/ayoisaiah/studytime/internal/models"
	"github.com/ayoisaiah/studytime/score"
)

// Details are the answers given in the save form.
type Details struct {
	Correctness *models.Correctness
	Note        string
	Mood        models.Mood
}

// Recorder turns a finished snapshot into a stored session.
type Recorder interface {
	Record(ctx context.Context, s Snapshot, d Details) (*models.Session, score.Breakdown, error)
}

// saveAnswers backs the fields of the save form.
type saveAnswers struct {
	note    string
	mood    models.Mood
	correct string
	total   string
	save    bool
}

// details converts the answers. Empty exam counters are left out.
func (a *saveAnswers) details() (Details, error) {
	d := Details{
		Note: strings.TrimSpace(a.note),
		Mood: a.mood,
	}

	if strings.TrimSpace(a.correct) == "" && strings.TrimSpace(a.total) == "" {
		return d, nil
	}

	correct, err := parseCount(a.correct)
	if err != nil {
		return d, err
	}

	total, err := parseCount(a.total)
	if err != nil {
		return d, err
	}

	if correct > total {
		return d, errCorrectExceedsTotal.Fmt(correct, total)
	}

	d.Correctness = &models.Correctness{Correct: correct, Total: total}

	return d, nil
}

func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errNotANumber.Fmt(s)
	}

	if n < 0 {
		return 0, errNegativeCount
	}

	return n, nil
}

func validateCount(s string) error {
	_, err := parseCount(s)
	return err
}

// newSaveForm asks whether to keep the finished session and collects the
// optional note, mood and exam counters.
func newSaveForm(a *saveAnswers, kind mode.Kind) *huh.Form {
	a.save = true

	moods := make([]huh.Option[models.Mood], 0, len(models.Moods)+1)
	moods = append(moods, huh.NewOption("skip", models.Mood("")))

	for _, m := range models.Moods {
		moods = append(moods, huh.NewOption(string(m), m))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this session?").
				Affirmative("Save").
				Negative("Discard").
				Value(&a.save),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Note").
				Placeholder("What did you work on?").
				CharLimit(280).
				Value(&a.note),
			huh.NewSelect[models.Mood]().
				Title("How did it go?").
				Options(moods...).
				Value(&a.mood),
		).WithHideFunc(func() bool {
			return !a.save
		}),
		huh.NewGroup(
			huh.NewInput().
				Title("Correct answers").
				Validate(validateCount).
				Value(&a.correct),
			huh.NewInput().
				Title("Total questions").
				Validate(validateCount).
				Value(&a.total),
		).WithHideFunc(func() bool {
			return !a.save || kind != mode.KindExam
		}),
	).WithShowHelp(true)
}
