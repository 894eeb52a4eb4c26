// Package stats appends counter-strafe events to a CSV file for
// offline review.
package stats

import (
	"fmt"
	"os"
	"time"
)

const header = "timestamp,axis,direction,counter_strafe_ms,weapon\n"

// Log is an append-only CSV sink. A nil *Log is valid and discards
// every record, so callers never branch on stats being enabled.
type Log struct {
	f *os.File
}

// Open opens (or creates) the CSV at path and writes the header when
// the file is empty.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("stats: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stats: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		if _, err := f.WriteString(header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("stats: write header: %w", err)
		}
	}
	return &Log{f: f}, nil
}

// Record appends one counter-strafe event. axis is "H" or "V",
// direction the counter-strafed key ("W", "A", "S" or "D").
func (l *Log) Record(now time.Time, axis, direction string, ms float64, weapon string) {
	if l == nil || l.f == nil {
		return
	}
	_, _ = fmt.Fprintf(l.f, "%s,%s,%s,%.2f,%s\n",
		now.Format("2006-01-02 15:04:05"), axis, direction, ms, weapon)
	_ = l.f.Sync()
}

// Close closes the underlying file. Safe on nil.
func (l *Log) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
