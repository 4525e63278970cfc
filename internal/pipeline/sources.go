// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pdiddy/pdf-extractor/internal/httputil"
	"github.com/pdiddy/pdf-extractor/internal/watcher"
)

// Sources expands command-line arguments into extraction sources.
// Directories are replaced by the files directly inside them whose
// extension matches, in name order. URLs and files pass through unchanged;
// a missing file is kept so the batch reports it as failed.
func Sources(args []string, extensions []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, arg := range args {
		if httputil.IsRemote(arg) {
			add(arg)
			continue
		}
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			add(arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		var files []string
		for _, e := range entries {
			if e.IsDir() || !watcher.MatchExtension(e.Name(), extensions) {
				continue
			}
			files = append(files, filepath.Join(arg, e.Name()))
		}
		slices.Sort(files)
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}
