package stats_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aduadu321/wooting-aim/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")

	l, err := stats.Open(path)
	require.NoError(t, err)

	now := time.Date(2024, 5, 2, 13, 37, 1, 0, time.UTC)
	l.Record(now, "H", "A", 82.5, "weapon_ak47")
	l.Record(now.Add(time.Second), "V", "W", 130.0, "")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,axis,direction,counter_strafe_ms,weapon", lines[0])
	assert.Equal(t, "2024-05-02 13:37:01,H,A,82.50,weapon_ak47", lines[1])
	assert.Equal(t, "2024-05-02 13:37:02,V,W,130.00,", lines[2])
}

func TestAppendKeepsSingleHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")

	l, err := stats.Open(path)
	require.NoError(t, err)
	l.Record(time.Now(), "H", "D", 75, "weapon_awp")
	require.NoError(t, l.Close())

	l, err = stats.Open(path)
	require.NoError(t, err)
	l.Record(time.Now(), "H", "A", 90, "weapon_awp")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "timestamp,"))
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)
}

func TestNilLogDiscards(t *testing.T) {
	var l *stats.Log
	l.Record(time.Now(), "H", "A", 10, "")
	assert.NoError(t, l.Close())
}
