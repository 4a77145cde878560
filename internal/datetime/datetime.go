// Package datetime converts free-form statement timestamps into the
// application's display timezone.
//
// Every bank export declares its own idea of what a timestamp means: some
// files carry ISO-8601 instants with an explicit offset, some carry bare
// wall-clock values in the bank's local zone, some carry UTC. A schema tags
// each date/time column with a TZ value saying how to interpret the raw text;
// the normalized output is always rendered in the single display zone.
package datetime

import (
	"fmt"
	"strings"
	"time"
)

// DisplayZoneName is the fixed zone all normalized dates and times are
// rendered in, regardless of the source zone. Note this means a UTC timestamp
// near local midnight can land on the previous or next calendar day after
// conversion.
const DisplayZoneName = "America/Chicago"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"

	// Date-only inputs get noon rather than midnight so that small zone
	// shifts cannot move them across a day boundary.
	defaultHour = 12
)

var displayZone = mustLoadDisplayZone()

func mustLoadDisplayZone() *time.Location {
	loc, err := time.LoadLocation(DisplayZoneName)
	if err != nil {
		panic(fmt.Sprintf("loading display zone %s: %v", DisplayZoneName, err))
	}
	return loc
}

// TZ declares how a raw timestamp should be interpreted before conversion to
// the display zone. Serialized as a bare string ("Local" or "UTC") inside
// statement schema JSON.
type TZ string

const (
	Local TZ = "Local"
	UTC   TZ = "UTC"
)

// Valid reports whether tz is one of the known tags.
func (tz TZ) Valid() bool {
	return tz == Local || tz == UTC
}

func (tz TZ) location() (*time.Location, error) {
	switch tz {
	case Local:
		return displayZone, nil
	case UTC:
		return time.UTC, nil
	default:
		return nil, fmt.Errorf("unknown timezone tag %q", string(tz))
	}
}

// ParseError reports text that matched none of the accepted layouts.
type ParseError struct {
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %q as a date or time", e.Value)
}

type layout struct {
	format  string
	hasDate bool
	hasTime bool
}

// Accepted layouts, most specific first. Layouts carrying an explicit offset
// win over the declared source zone. Numeric day-first formats are
// deliberately absent: "2/4/2025" is always February 4th.
var layouts = []layout{
	{"2006-01-02T15:04:05Z07:00", true, true},
	{"2006-01-02T15:04:05", true, true},
	{"2006-01-02 15:04:05Z07:00", true, true},
	{"2006-01-02 15:04:05", true, true},
	{"2006-01-02 15:04", true, true},
	{"2006-01-02", true, false},
	{"1/2/2006 15:04:05", true, true},
	{"1/2/2006 3:04:05 PM", true, true},
	{"1/2/2006 3:04:05 pm", true, true},
	{"1/2/2006 3:04 PM", true, true},
	{"1/2/2006 3:04 pm", true, true},
	{"1/2/2006 15:04", true, true},
	{"1/2/2006", true, false},
	{"1/2/06", true, false},
	{"Jan 2, 2006", true, false},
	{"January 2, 2006", true, false},
	{"2 Jan 2006", true, false},
	{"Jan 2 2006", true, false},
	{"15:04:05", false, true},
	{"15:04", false, true},
	{"3:04:05 PM", false, true},
	{"3:04:05 pm", false, true},
	{"3:04 PM", false, true},
	{"3:04 pm", false, true},
}

func parse(text string, tz TZ) (time.Time, error) {
	src, err := tz.location()
	if err != nil {
		return time.Time{}, err
	}

	trimmed := strings.TrimSpace(text)
	for _, l := range layouts {
		t, err := time.ParseInLocation(l.format, trimmed, src)
		if err != nil {
			continue
		}
		if !l.hasTime {
			t = time.Date(t.Year(), t.Month(), t.Day(), defaultHour, 0, 0, 0, t.Location())
		}
		if !l.hasDate {
			// Time-only values get today's date in the source zone, so
			// DST rules for the current day apply during conversion.
			now := time.Now().In(src)
			t = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
		}
		return t.In(displayZone), nil
	}

	return time.Time{}, &ParseError{Value: text}
}

// NormalizeDate parses text as a date or datetime in the declared source zone
// and returns the calendar date in the display zone as "YYYY-MM-DD".
func NormalizeDate(text string, tz TZ) (string, error) {
	t, err := parse(text, tz)
	if err != nil {
		return "", err
	}
	return t.Format(dateLayout), nil
}

// NormalizeTime parses text as a time or datetime in the declared source zone
// and returns the wall-clock time in the display zone as "HH:MM:SS".
func NormalizeTime(text string, tz TZ) (string, error) {
	t, err := parse(text, tz)
	if err != nil {
		return "", err
	}
	return t.Format(timeLayout), nil
}
