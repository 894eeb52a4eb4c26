//go:build linux

// Package procwatch polls for the presence of the game process so
// watch mode can arm and disarm itself.
package procwatch

import (
	"os"
	"path/filepath"
	"strings"
)

// Running reports whether a process with the given command name (as in
// /proc/<pid>/comm) exists.
func Running(name string) bool {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() || !isNumeric(e.Name()) {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		if err != nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(string(comm)), name) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
