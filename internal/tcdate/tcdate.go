// Package tcdate implements the two date helpers every task definition needs:
// relative offsets in the "1 year" / "2 hours" notation Taskcluster uses, and
// the millisecond-precision UTC string format the queue accepts.
package tcdate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the timestamp format accepted by the Taskcluster queue.
const Layout = "2006-01-02T15:04:05.000Z"

// Offset is a calendar-aware relative offset. Years, months and days are
// applied with time.AddDate, the rest as a plain duration.
type Offset struct {
	Years, Months, Days int
	Duration           time.Duration
}

var offsetPattern = regexp.MustCompile(`^\s*([+-]?)\s*(\d+)\s*([a-z]+)\s*$`)

// ParseOffset parses expressions such as "1 year", "2 days", "-1 hour" or
// "30 min". Several terms can be combined: "1 day 6 hours".
func ParseOffset(expr string) (Offset, error) {
	fields := strings.Fields(strings.ToLower(expr))
	if len(fields) == 0 {
		return Offset{}, fmt.Errorf("empty offset expression")
	}

	// Re-join sign/number/unit triples so "- 1 day" and "-1day" both work.
	var terms []string
	var current strings.Builder
	for _, f := range fields {
		current.WriteString(f)
		if endsWithUnit(f) {
			terms = append(terms, current.String())
			current.Reset()
		} else {
			current.WriteString(" ")
		}
	}
	if current.Len() > 0 {
		return Offset{}, fmt.Errorf("offset %q: missing unit", expr)
	}

	var off Offset
	for _, term := range terms {
		m := offsetPattern.FindStringSubmatch(term)
		if m == nil {
			return Offset{}, fmt.Errorf("offset %q: cannot parse term %q", expr, term)
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return Offset{}, fmt.Errorf("offset %q: %w", expr, err)
		}
		if m[1] == "-" {
			n = -n
		}
		if err := off.add(n, m[3]); err != nil {
			return Offset{}, fmt.Errorf("offset %q: %w", expr, err)
		}
	}
	return off, nil
}

// MustParseOffset is ParseOffset for compile-time constants.
func MustParseOffset(expr string) Offset {
	off, err := ParseOffset(expr)
	if err != nil {
		panic(err)
	}
	return off
}

func (o *Offset) add(n int, unit string) error {
	switch unit {
	case "y", "yr", "yrs", "year", "years":
		o.Years += n
	case "mo", "month", "months":
		o.Months += n
	case "w", "wk", "wks", "week", "weeks":
		o.Days += 7 * n
	case "d", "day", "days":
		o.Days += n
	case "h", "hr", "hrs", "hour", "hours":
		o.Duration += time.Duration(n) * time.Hour
	case "m", "min", "mins", "minute", "minutes":
		o.Duration += time.Duration(n) * time.Minute
	case "s", "sec", "secs", "second", "seconds":
		o.Duration += time.Duration(n) * time.Second
	default:
		return fmt.Errorf("unknown unit %q", unit)
	}
	return nil
}

// From applies the offset to t.
func (o Offset) From(t time.Time) time.Time {
	return t.AddDate(o.Years, o.Months, o.Days).Add(o.Duration)
}

// Format renders t in the queue's timestamp format.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

func endsWithUnit(s string) bool {
	if s == "" {
		return false
	}
	c := s[len(s)-1]
	return c >= 'a' && c <= 'z'
}
