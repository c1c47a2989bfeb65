// Package stacktrace trims goroutine dumps down to this module's own frames.
package stacktrace

import "strings"

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of a
// runtime/debug.Stack dump that lives under an internal/ directory, innermost
// frame first.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		file, _, _ := strings.Cut(strings.TrimSpace(line), " +")
		if !strings.Contains(file, ".go:") {
			continue
		}
		if i := strings.Index(file, marker); i >= 0 {
			paths = append(paths, file[i+1:])
		}
	}
	return paths
}

// Summary returns the internal frames of stack, or the whole dump when none
// of them are internal.
func Summary(stack []byte) any {
	if paths := InternalPaths(stack); len(paths) > 0 {
		return paths
	}
	return string(stack)
}
