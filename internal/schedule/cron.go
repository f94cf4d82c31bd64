// Package schedule handles Bitbucket pipeline schedule cron patterns.
//
// Bitbucket uses Quartz-style patterns with six or seven fields
// (second minute hour day-of-month month day-of-week [year]), where
// day-of-week runs 1-7 starting on Sunday and "?" means "no specific
// value". This package validates such patterns and converts them to
// standard five-field expressions for computing run previews.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPattern schedules the weekly placeholder build: Saturday 09:00 UTC.
const DefaultPattern = "0 0 9 ? * SAT *"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks that a Bitbucket cron pattern is well formed and
// expressible as a weekly-style standard cron expression.
func Validate(pattern string) error {
	std, err := toStandard(pattern)
	if err != nil {
		return err
	}

	if _, err := parser.Parse(std); err != nil {
		return fmt.Errorf("invalid cron pattern %q: %w", pattern, err)
	}

	return nil
}

// NextRun returns the first execution time after the given instant, in UTC.
func NextRun(pattern string, after time.Time) (time.Time, error) {
	std, err := toStandard(pattern)
	if err != nil {
		return time.Time{}, err
	}

	sched, err := parser.Parse(std)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron pattern %q: %w", pattern, err)
	}

	return sched.Next(after.UTC()), nil
}

// toStandard converts a Quartz-style pattern to a standard five-field
// cron expression.
func toStandard(pattern string) (string, error) {
	fields := strings.Fields(pattern)

	switch len(fields) {
	case 7:
		if fields[6] != "*" {
			return "", fmt.Errorf("invalid cron pattern %q: year field must be *", pattern)
		}

		fields = fields[:6]
	case 6:
	default:
		return "", fmt.Errorf("invalid cron pattern %q: expected 6 or 7 fields, got %d", pattern, len(fields))
	}

	if fields[0] != "0" && fields[0] != "*" {
		return "", fmt.Errorf("invalid cron pattern %q: sub-minute schedules are not supported", pattern)
	}

	dow, err := convertDayOfWeek(fields[5])
	if err != nil {
		return "", fmt.Errorf("invalid cron pattern %q: %w", pattern, err)
	}

	dom := fields[3]
	if dom == "?" {
		dom = "*"
	}

	return strings.Join([]string{fields[1], fields[2], dom, fields[4], dow}, " "), nil
}

var dayNames = map[string]bool{
	"SUN": true, "MON": true, "TUE": true, "WED": true,
	"THU": true, "FRI": true, "SAT": true,
}

// convertDayOfWeek maps a Quartz day-of-week field (1-7, Sunday first, or
// names) to the standard 0-6 numbering. Lists, ranges and steps of plain
// values are supported; Quartz L/W/# extensions are not.
func convertDayOfWeek(field string) (string, error) {
	if field == "?" || field == "*" {
		return "*", nil
	}

	convertAtom := func(atom string) (string, error) {
		if dayNames[strings.ToUpper(atom)] {
			return strings.ToUpper(atom), nil
		}

		n, err := strconv.Atoi(atom)
		if err != nil {
			return "", fmt.Errorf("unsupported day-of-week value %q", atom)
		}

		if n < 1 || n > 7 {
			return "", fmt.Errorf("day-of-week value %d out of range 1-7", n)
		}

		return strconv.Itoa(n - 1), nil
	}

	var converted []string

	for part := range strings.SplitSeq(field, ",") {
		expr, step, hasStep := strings.Cut(part, "/")

		var atoms []string

		for atom := range strings.SplitSeq(expr, "-") {
			out, err := convertAtom(atom)
			if err != nil {
				return "", err
			}

			atoms = append(atoms, out)
		}

		if len(atoms) > 2 {
			return "", fmt.Errorf("unsupported day-of-week range %q", part)
		}

		out := strings.Join(atoms, "-")
		if hasStep {
			out = out + "/" + step
		}

		converted = append(converted, out)
	}

	return strings.Join(converted, ","), nil
}
