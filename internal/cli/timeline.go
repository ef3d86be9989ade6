package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/RedBearAK/Toshy/internal/input"
	"github.com/RedBearAK/Toshy/internal/input/key"
)

// ErrTimeline indicates a malformed simulate timeline.
var ErrTimeline = errors.New("invalid timeline")

// Step is one key event of a timeline.
type Step struct {
	Line    int
	At      time.Duration
	Key     key.Event
	Context input.Context
}

// ParseTimeline reads a timeline, one event per line:
//
//	<ms> <key> [class=..] [title=..] [device=..] [numlock] [capslock] [nofocus]
//
// Values containing spaces are double-quoted. class, title and device carry
// over to later lines until changed; the flags apply to their line only.
// Blank lines and text after '#' are ignored. Times must not decrease.
func ParseTimeline(r io.Reader) ([]Step, error) {
	var (
		steps []Step
		ctx   = input.NewContext("", "")
		last  time.Duration
		n     int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		n++
		fields, err := splitFields(stripComment(sc.Text()))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrTimeline, n, err)
		}
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: want <ms> <key>", ErrTimeline, n)
		}

		ms, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("%w: line %d: bad time %q", ErrTimeline, n, fields[0])
		}
		at := time.Duration(ms) * time.Millisecond
		if at < last {
			return nil, fmt.Errorf("%w: line %d: time %dms before previous event", ErrTimeline, n, ms)
		}
		last = at

		ev, err := key.Parse(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrTimeline, n, err)
		}

		ctx = ctx.WithLocks(false, false).WithFocus(true)
		for _, f := range fields[2:] {
			name, val, hasVal := strings.Cut(f, "=")
			switch {
			case name == "class" && hasVal:
				ctx.WindowClass = val
			case name == "title" && hasVal:
				ctx.WindowTitle = val
			case name == "device" && hasVal:
				ctx.DeviceName = val
			case f == "numlock":
				ctx.NumLockOn = true
			case f == "capslock":
				ctx.CapsLockOn = true
			case f == "nofocus":
				ctx.ScreenHasFocus = false
			default:
				return nil, fmt.Errorf("%w: line %d: unknown field %q", ErrTimeline, n, f)
			}
		}

		steps = append(steps, Step{Line: n, At: at, Key: ev, Context: ctx})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

func stripComment(line string) string {
	inQuote := false
	for i, r := range line {
		switch r {
		case '"':
			inQuote = !inQuote
		case '#':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

// splitFields splits on whitespace, keeping double-quoted runs together
// and dropping the quotes.
func splitFields(line string) ([]string, error) {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
		inField bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			inField = true
		case !inQuote && (r == ' ' || r == '\t'):
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}
		default:
			cur.WriteRune(r)
			inField = true
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if inField {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
