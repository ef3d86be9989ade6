package focus

import (
	"bufio"
	"io"
	"os"
	"strings"
	"time"
)

// Tail follows one log file from the position it had when first read.
// It is not safe for concurrent use.
type Tail struct {
	path        string
	since       time.Time
	offset      int64
	initialized bool
}

// NewTail follows path, ignoring lines timestamped before since.
func NewTail(path string, since time.Time) *Tail {
	return &Tail{path: path, since: since.Truncate(time.Second)}
}

// Path returns the followed file.
func (t *Tail) Path() string {
	return t.path
}

// Read consumes lines appended since the previous call and returns the
// last focus state they announce. The first successful call only records
// the end of the file and reports focus, so history before startup is
// never replayed.
func (t *Tail) Read() (focused bool, changed bool, err error) {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, false, nil
		}
		return false, false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, false, err
	}

	if !t.initialized {
		t.offset = info.Size()
		t.initialized = true
		return true, true, nil
	}

	// Truncated or replaced by rotation.
	if info.Size() < t.offset {
		t.offset = 0
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return false, false, err
	}

	r := bufio.NewReader(f)
	var read int64
	for {
		line, rerr := r.ReadString('\n')
		if rerr != nil {
			// A partial last line is left for the next read.
			if rerr != io.EOF {
				err = rerr
			}
			break
		}
		read += int64(len(line))

		if s, ok := t.parse(line); ok {
			focused, changed = s, true
		}
	}
	t.offset += read
	return focused, changed, err
}

func (t *Tail) parse(line string) (bool, bool) {
	line = strings.TrimSpace(line)
	if ts, ok := LineTime(line); ok && ts.Before(t.since) {
		return false, false
	}
	return ParseLine(line)
}
