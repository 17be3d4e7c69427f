package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// recordingExts are the extensions picked up when walking a directory
var recordingExts = []string{".jsonl", ".ndjson"}

func isRecordingFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range recordingExts {
		if ext == e {
			return true
		}
	}
	return false
}

func isGlob(arg string) bool {
	return strings.ContainsAny(arg, "*?[{")
}

// collectFiles expands files, directories and doublestar patterns such as
// "reports/**/*.jsonl" into a sorted list of recordings. Files named
// explicitly are taken whatever their extension.
func collectFiles(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		if isGlob(arg) {
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isRecordingFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// watchDirs returns the directories holding files plus every directory below
// the directory arguments
func watchDirs(args, files []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	for _, f := range files {
		add(filepath.Dir(f))
	}
	for _, arg := range args {
		if isGlob(arg) {
			base, _ := doublestar.SplitPattern(filepath.ToSlash(arg))
			arg = filepath.FromSlash(base)
		}
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			continue
		}
		_ = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() {
				add(path)
			}
			return nil
		})
	}
	sort.Strings(dirs)
	return dirs
}
