package mode

import (
	"slices"
	"strings"
	"time"

	"github.com/ayoisaiah/studytime/internal/apperr"
)

var (
	minDuration = 1 * time.Second
	maxDuration = 720 * time.Minute
)

var (
	errUnknownMode = &apperr.Error{
		Message: "unknown timer mode: %q",
	}

	errInvalidDuration = &apperr.Error{
		Message: "%s duration must be between %v and %v",
	}

	errNoSections = &apperr.Error{
		Message: "exam mode needs at least one section",
	}

	errSectionName = &apperr.Error{
		Message: "exam section %d has no name",
	}
)

// Spec is the flat, serialisable form of a Config. It is used for config
// files and for persisted records.
type Spec struct {
	Kind      Kind          `json:"kind"                mapstructure:"kind"`
	Sections  []Section     `json:"sections,omitempty"  mapstructure:"sections"`
	Countdown time.Duration `json:"countdown,omitempty" mapstructure:"countdown"`
	Work      time.Duration `json:"work,omitempty"      mapstructure:"work"`
	Break     time.Duration `json:"break,omitempty"     mapstructure:"break"`
}

// Encode converts cfg into its serialisable form.
func Encode(cfg Config) Spec {
	switch c := cfg.(type) {
	case Countdown:
		return Spec{Kind: KindCountdown, Countdown: c.Duration}
	case WorkBreak:
		return Spec{Kind: KindWorkBreak, Work: c.Work, Break: c.Break}
	case Exam:
		return Spec{Kind: KindExam, Sections: slices.Clone(c.Sections)}
	}

	return Spec{Kind: KindFree}
}

// Decode converts s back into a Config without validating durations.
func (s Spec) Decode() (Config, error) {
	switch Kind(strings.TrimSpace(string(s.Kind))) {
	case KindFree, "":
		return Free{}, nil
	case KindCountdown:
		return Countdown{Duration: s.Countdown}, nil
	case KindWorkBreak:
		return WorkBreak{Work: s.Work, Break: s.Break}, nil
	case KindExam:
		return Exam{Sections: slices.Clone(s.Sections)}, nil
	}

	return nil, errUnknownMode.Fmt(s.Kind)
}

// ParseKind validates a mode name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if slices.Contains(Kinds, k) {
		return k, nil
	}

	return "", errUnknownMode.Fmt(s)
}

// Validate checks that every duration of cfg is usable.
func Validate(cfg Config) error {
	switch c := cfg.(type) {
	case Free:
		return nil
	case Countdown:
		return checkDuration("countdown", c.Duration)
	case WorkBreak:
		if err := checkDuration("work", c.Work); err != nil {
			return err
		}

		return checkDuration("break", c.Break)
	case Exam:
		if len(c.Sections) == 0 {
			return errNoSections
		}

		for i, s := range c.Sections {
			if strings.TrimSpace(s.Name) == "" {
				return errSectionName.Fmt(i + 1)
			}

			if err := checkDuration(s.Name, s.Duration); err != nil {
				return err
			}
		}

		return nil
	}

	return errUnknownMode.Fmt(cfg)
}

func checkDuration(name string, d time.Duration) error {
	if d < minDuration || d > maxDuration {
		return errInvalidDuration.Fmt(name, minDuration, maxDuration)
	}

	return nil
}
