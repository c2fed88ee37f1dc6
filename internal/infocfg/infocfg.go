// Package infocfg reads and rewrites the engine's key/value ".info" config
// files. A scalar line is "<key> <value> [; comment]"; block braces,
// comments and #include directives are preserved verbatim.
package infocfg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// File is a parsed .info file that remembers its original lines so that
// rewriting it only touches the substituted keys.
type File struct {
	lines []string
	vars  map[string]int
}

type scalar struct {
	indent string
	key    string
	value  string
}

// Parse reads an .info document. The first occurrence of a key wins.
func Parse(r io.Reader) (*File, error) {
	f := &File{vars: make(map[string]int)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		f.lines = append(f.lines, line)
		if s, ok := parseScalar(line); ok {
			if _, seen := f.vars[s.key]; !seen {
				f.vars[s.key] = len(f.lines) - 1
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read info config: %w", err)
	}
	return f, nil
}

// Load parses the .info file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data))
}

func parseScalar(line string) (scalar, bool) {
	body := line
	if i := strings.IndexByte(body, ';'); i >= 0 {
		body = body[:i]
	}
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return scalar{}, false
	}
	fields := strings.Fields(trimmed)
	key := fields[0]
	if key == "{" || key == "}" {
		return scalar{}, false
	}
	value := strings.TrimSpace(strings.TrimPrefix(trimmed, key))
	if value == "" || value == "{" {
		return scalar{}, false
	}
	indent := line[:len(line)-len(strings.TrimLeftFunc(line, unicode.IsSpace))]
	return scalar{indent: indent, key: key, value: value}, true
}

// Get returns the value of key.
func (f *File) Get(key string) (string, bool) {
	idx, ok := f.vars[key]
	if !ok {
		return "", false
	}
	s, _ := parseScalar(f.lines[idx])
	return s.value, true
}

// Keys returns the scalar keys in file order.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.vars))
	for k := range f.vars {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int { return f.vars[a] - f.vars[b] })
	return keys
}

// Set replaces the value of an existing key and reports whether the key
// was present. Unknown keys are never appended.
func (f *File) Set(key, value string) bool {
	idx, ok := f.vars[key]
	if !ok {
		return false
	}
	s, _ := parseScalar(f.lines[idx])
	f.lines[idx] = s.indent + key + " " + value
	return true
}

// WriteTo writes the document back out.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, line := range f.lines {
		m, err := io.WriteString(w, line+"\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Substitute sets every key of params that the file at path declares and
// rewrites the file in place. Keys the file does not declare are returned
// as missing, sorted.
func Substitute(path string, params map[string]string) ([]string, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var missing []string
	for _, k := range keys {
		if !f.Set(k, params[k]) {
			missing = append(missing, k)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return nil, err
	}
	return missing, nil
}

// writeAtomic replaces path through a temp file and rename so a reader
// never observes a half-written config.
func writeAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".multik-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}
