//go:build linux

package hidraw

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsagePage(t *testing.T) {
	cases := []struct {
		name string
		desc []byte
		page uint16
		ok   bool
	}{
		{
			name: "vendor page 16-bit",
			desc: []byte{0x06, 0x55, 0xFF, 0x09, 0x01, 0xA1, 0x01, 0xC0},
			page: 0xFF55,
			ok:   true,
		},
		{
			name: "generic desktop 8-bit",
			desc: []byte{0x05, 0x01, 0x09, 0x06, 0xA1, 0x01, 0xC0},
			page: 0x0001,
			ok:   true,
		},
		{
			name: "no usage page item",
			desc: []byte{0x09, 0x06, 0xA1, 0x01, 0xC0},
			ok:   false,
		},
		{
			name: "truncated item",
			desc: []byte{0x06, 0x55},
			ok:   false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, ok := usagePage(tc.desc)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.page, page)
			}
		})
	}
}

func TestParseHIDID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uevent")
	require.NoError(t, os.WriteFile(path, []byte(
		"DRIVER=hid-generic\nHID_ID=0003:000031E3:00001230\nHID_NAME=Wooting 60HE\n",
	), 0o644))

	vendor, product, ok := parseHIDID(path)
	require.True(t, ok)
	assert.Equal(t, uint16(0x31E3), vendor)
	assert.Equal(t, uint16(0x1230), product)

	_, _, ok = parseHIDID(filepath.Join(dir, "missing"))
	assert.False(t, ok)
}
