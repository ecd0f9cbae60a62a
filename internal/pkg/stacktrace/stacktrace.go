// Package stacktrace trims goroutine stack dumps down to this module's frames.
package stacktrace

import "strings"

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// stack that lives under an internal/ directory.
func InternalPaths(stack []byte) []string {
	var paths []string

	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)

		// File lines look like "/abs/path/file.go:42 +0x1d".
		loc, _, _ := strings.Cut(line, " ")
		if !strings.Contains(loc, ".go:") {
			continue
		}

		idx := strings.Index(loc, marker)
		if idx == -1 {
			continue
		}

		paths = append(paths, loc[idx+1:])
	}

	return paths
}
