// Package loader reads rule files into generic maps.
//
// TOML and YAML are supported and chosen by file extension. A file may pull
// in others with an "@include" key holding a path or list of paths,
// resolved relative to the including file.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IncludeKey names the include directive.
const IncludeKey = "@include"

// DefaultMaxDepth limits include nesting.
const DefaultMaxDepth = 8

var (
	// ErrNotFound is returned when the requested file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrUnsupportedFormat is returned for an unknown file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrIncludeDepth is returned when includes nest too deeply or loop.
	ErrIncludeDepth = errors.New("include depth exceeded")
)

// FileSystem is the file access the loader needs. Tests substitute an
// in-memory implementation.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Format decodes one file format.
type Format interface {
	Name() string
	Decode(source string, data []byte) (map[string]any, error)
}

// FormatFor picks the format for path by extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML{}, nil
	case ".yaml", ".yml":
		return YAML{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Result is a loaded file with its includes merged in.
type Result struct {
	Data map[string]any
	// Files lists every file read, the main file first.
	Files []string
}

// Loader reads rule files.
type Loader struct {
	fs       FileSystem
	maxDepth int
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS sets the file system.
func WithFS(fsys FileSystem) Option {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithMaxDepth sets the include nesting limit.
func WithMaxDepth(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxDepth = n
		}
	}
}

// New creates a loader on the OS file system.
func New(opts ...Option) *Loader {
	l := &Loader{fs: OSFS{}, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads path and everything it includes.
func (l *Loader) Load(path string) (*Result, error) {
	res := &Result{}
	data, err := l.load(path, l.maxDepth, res)
	if err != nil {
		return nil, err
	}
	res.Data = data
	return res, nil
}

// LoadFile reads a single file without processing includes.
func (l *Loader) LoadFile(path string) (map[string]any, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := format.Decode(path, data)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

func (l *Loader) load(path string, depth int, res *Result) (map[string]any, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("%w at %s", ErrIncludeDepth, path)
	}

	config, err := l.LoadFile(path)
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, path)

	includes, ok := config[IncludeKey]
	if !ok {
		return config, nil
	}
	delete(config, IncludeKey)

	list, err := includeList(includes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	for _, inc := range list {
		incPath := inc
		if !filepath.IsAbs(inc) {
			incPath = filepath.Join(baseDir, inc)
		}

		incConfig, err := l.load(incPath, depth-1, res)
		if err != nil {
			return nil, fmt.Errorf("loading include %s: %w", incPath, err)
		}
		config = MergeInclude(config, incConfig)
	}

	return config, nil
}

func includeList(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be a string or list of strings", IncludeKey)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a string or list of strings, got %T", IncludeKey, v)
	}
}
