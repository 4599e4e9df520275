package convert

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

const (
	millisPerSecond = 1000
	millisPerMinute = 60 * millisPerSecond
	millisPerHour   = 60 * millisPerMinute
	millisPerDay    = 24 * millisPerHour
)

var relativeTerm = regexp.MustCompile(`^\s*([+-]?\d+)\s*(\pL*)`)

// absoluteLayouts are tried in order, most specific first.
var absoluteLayouts = []string{
	"2.1.2006 15:04:05,000",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2.1.2006",
	"2.1.06 15:04:05,000",
	"2.1.06 15:04:05",
	"2.1.06 15:04",
	"2.1.06",
}

// TextToTimestamp parses text for t and returns milliseconds: since the
// epoch for absolute types, as a duration for relative ones.
func TextToTimestamp(t *schema.TimeType, text string) (int64, error) {
	if strings.EqualFold(strings.TrimSpace(text), UndefinedText) {
		return 0, nil
	}
	if t.Relative {
		return parseRelative(t, text)
	}
	return parseAbsolute(t, text)
}

// parseRelative sums (integer, unit) terms such as "2t 3h" or "500ms".
func parseRelative(t *schema.TimeType, text string) (int64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, dataerr.InvalidFormat(t.PID, text, "empty duration")
	}
	var total int64
	for s != "" {
		m := relativeTerm.FindStringSubmatch(s)
		if m == nil {
			return 0, dataerr.InvalidFormat(t.PID, text, "expected number at %q", s)
		}
		if m[2] == "" {
			return 0, dataerr.InvalidFormat(t.PID, text, "missing unit after %s", m[1])
		}
		unit, ok := unitMillis(m[2])
		if !ok {
			return 0, dataerr.InvalidFormat(t.PID, text, "unknown unit %q", m[2])
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n > math.MaxInt64/unit || n < math.MinInt64/unit {
			return 0, dataerr.OutOfRange(t.PID, text, "term %s%s too large", m[1], m[2])
		}
		term := n * unit
		if (term > 0 && total > math.MaxInt64-term) || (term < 0 && total < math.MinInt64-term) {
			return 0, dataerr.OutOfRange(t.PID, text, "duration too large")
		}
		total += term
		s = strings.TrimSpace(s[len(m[0]):])
	}
	return total, nil
}

func unitMillis(word string) (int64, bool) {
	w := strings.ToLower(word)
	switch {
	case w == "ms" || strings.HasPrefix(w, "milli"):
		return 1, true
	case w == "t" || strings.HasPrefix(w, "tag"):
		return millisPerDay, true
	case w == "h" || strings.HasPrefix(w, "stunde"):
		return millisPerHour, true
	case w == "m" || strings.HasPrefix(w, "minute"):
		return millisPerMinute, true
	case w == "s" || strings.HasPrefix(w, "sekunde"):
		return millisPerSecond, true
	default:
		return 0, false
	}
}

func parseAbsolute(t *schema.TimeType, text string) (int64, error) {
	s := strings.TrimSpace(text)
	for _, layout := range absoluteLayouts {
		if ts, err := time.ParseInLocation(layout, s, Location); err == nil {
			return ts.UnixMilli(), nil
		}
	}
	return 0, dataerr.InvalidFormat(t.PID, text, "not a date of the form dd.MM.yy[ HH:mm[:ss[,SSS]]]")
}

// FormatTimestamp renders millis for t. The absolute time 0 is undefined.
func FormatTimestamp(t *schema.TimeType, millis int64) string {
	if t.Relative {
		return FormatRelativeTime(millis, t.Accuracy)
	}
	if millis == 0 {
		return UndefinedText
	}
	return FormatAbsoluteTime(millis, t.Accuracy)
}

// FormatAbsoluteTime renders milliseconds since the epoch as
// dd.MM.yyyy HH:mm:ss[,SSS].
func FormatAbsoluteTime(millis int64, accuracy schema.TimeAccuracy) string {
	ts := time.UnixMilli(millis).In(Location)
	if accuracy == schema.TimeSeconds {
		return ts.Format("02.01.2006 15:04:05")
	}
	return ts.Format("02.01.2006 15:04:05,000")
}

// FormatRelativeTime renders a duration as space separated terms, e.g.
// "1t 2h 30m". Negative durations negate every term.
func FormatRelativeTime(millis int64, accuracy schema.TimeAccuracy) string {
	units := []struct {
		millis int64
		suffix string
	}{
		{millisPerDay, "t"},
		{millisPerHour, "h"},
		{millisPerMinute, "m"},
		{millisPerSecond, "s"},
		{1, "ms"},
	}
	if accuracy == schema.TimeSeconds {
		units = units[:4]
	}
	var parts []string
	rest := millis
	for _, u := range units {
		n := rest / u.millis
		rest -= n * u.millis
		if n != 0 {
			parts = append(parts, strconv.FormatInt(n, 10)+u.suffix)
		}
	}
	if len(parts) == 0 {
		return "0" + units[len(units)-1].suffix
	}
	return strings.Join(parts, " ")
}
