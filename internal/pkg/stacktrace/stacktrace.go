// Package stacktrace trims goroutine dumps down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame
// under an internal/ directory, innermost first.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "/") && !strings.Contains(line, ":/") {
			continue
		}
		_, rest, ok := strings.Cut(line, "/internal/")
		if !ok {
			continue
		}
		if sp := strings.IndexByte(rest, ' '); sp >= 0 {
			rest = rest[:sp]
		}
		if strings.Contains(rest, ".go:") {
			paths = append(paths, "internal/"+rest)
		}
	}
	return paths
}

// Summary is a log value for a panic stack: the internal frames when there
// are any, otherwise the raw dump.
func Summary(stack []byte) any {
	if paths := InternalPaths(stack); len(paths) > 0 {
		return paths
	}
	return string(stack)
}
