package config

import (
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/studytime/internal/mode"
	"github.com/ayoisaiah/studytime/internal/timeutil"
)

// FilterConfig narrows the sessions shown by the sessions command.
type FilterConfig struct {
	Since time.Time
	Until time.Time
	Mode  mode.Kind
	JSON  bool
}

// Filter reads the filter flags of ctx relative to now.
//
// --since accepts a period name (today, 7days, ...) or a free-form date such
// as "last monday" or "2024-03-01". --until accepts a free-form date.
func Filter(ctx *cli.Context, now time.Time) (FilterConfig, error) {
	f := FilterConfig{
		JSON: ctx.Bool("json"),
	}

	if m := ctx.String("mode"); m != "" {
		kind, err := mode.ParseKind(m)
		if err != nil {
			return f, err
		}

		f.Mode = kind
	}

	if since := strings.TrimSpace(ctx.String("since")); since != "" {
		start, end, err := parseSince(since, now)
		if err != nil {
			return f, err
		}

		f.Since, f.Until = start, end
	}

	if until := strings.TrimSpace(ctx.String("until")); until != "" {
		t, err := parseDate(until, now)
		if err != nil {
			return f, err
		}

		f.Until = t
	}

	if !f.Since.IsZero() && !f.Until.IsZero() && !f.Since.Before(f.Until) {
		return f, errInvalidDateRange
	}

	return f, nil
}

// parseSince resolves a period name to its bounds, or a date to an open
// ended range starting at that date.
func parseSince(s string, now time.Time) (start, end time.Time, err error) {
	p := timeutil.Period(strings.ToLower(s))

	if _, ok := timeutil.Range[p]; ok {
		start, end, err = timeutil.Bounds(p, now)
		if err != nil {
			return start, end, errInvalidPeriod.Wrap(err).Fmt(s)
		}

		return start, end, nil
	}

	start, err = parseDate(s, now)

	return start, time.Time{}, err
}

func parseDate(s string, now time.Time) (time.Time, error) {
	cfg := &dateparser.Configuration{
		CurrentTime:         now,
		PreferredDateSource: dateparser.Past,
	}

	d, err := dateparser.Parse(cfg, s)
	if err != nil || d.Time.IsZero() {
		return time.Time{}, errInvalidSince.Fmt(s)
	}

	return d.Time, nil
}
