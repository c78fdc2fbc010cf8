package input

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Locator finds input devices by matching a stable substring against
// entries in a device-enumeration directory (normally /dev/input/by-path).
// Matching is deterministic: entries are considered in lexical order and
// the first match wins, with symlinks resolved to the real device node.
type Locator struct {
	// Dir is the directory scanned for device entries.
	Dir string
}

// Locate returns the resolved path of the first entry whose name contains
// pattern. A missing directory or absent match is an error; callers treat
// this as fatal at startup.
func (l Locator) Locate(pattern string) (string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return "", fmt.Errorf("reading device dir %s: %w", l.Dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if pattern == "" || !strings.Contains(name, pattern) {
			continue
		}
		full := filepath.Join(l.Dir, name)
		real, err := filepath.EvalSymlinks(full)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", full, err)
		}
		return real, nil
	}
	return "", fmt.Errorf("no device in %s matching %q", l.Dir, pattern)
}
