package focus

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// ParseLine reports the focus change a log line announces, if any.
func ParseLine(line string) (focused bool, ok bool) {
	switch {
	case strings.Contains(line, "leaving screen"):
		return false, true
	case strings.Contains(line, "entering screen"):
		return true, true
	}
	return false, false
}

// Matches "[2025-02-24T18:13:23]", "2025-02-24 18:13:23" and the bracketed
// form after a program name prefix.
var timestampRe = regexp2.MustCompile(`(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2})`, regexp2.None)

// LineTime extracts the local timestamp a log line starts with.
func LineTime(line string) (time.Time, bool) {
	m, err := timestampRe.FindStringMatch(line)
	if err != nil || m == nil {
		return time.Time{}, false
	}
	stamp := m.GroupByNumber(1).String()

	layout := "2006-01-02T15:04:05"
	if strings.Contains(stamp, " ") {
		layout = "2006-01-02 15:04:05"
	}
	t, err := time.ParseInLocation(layout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
