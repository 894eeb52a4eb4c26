//go:build linux

package analog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrNoKeyboard is returned when no input device looks like the
// analog keyboard.
var ErrNoKeyboard = errors.New("analog: no matching input device")

// evdev event types and key codes for the observed keys.
const (
	evKey = 0x01

	keyW        = 17
	keyA        = 30
	keyS        = 31
	keyD        = 32
	keyLeftCtrl = 29
)

// usageByCode maps evdev key codes onto the HID usages the rest of the
// system speaks.
var usageByCode = map[uint16]uint16{
	keyW:        UsageW,
	keyA:        UsageA,
	keyS:        UsageS,
	keyD:        UsageD,
	keyLeftCtrl: UsageLCtrl,
}

// eventSize is sizeof(struct input_event) on 64-bit: two 8-byte time
// fields, type, code, value.
const eventSize = 24

// EvdevReader folds the keyboard's evdev stream into a depth cache.
// Key events are binary, which matches how the game consumes input;
// depth is 1.0 while a key is reported down.
type EvdevReader struct {
	f      *os.File
	depths map[uint16]float32
	buf    [eventSize * 16]byte
}

// OpenEvdev scans /dev/input for the keyboard by device name and opens
// its event stream in nonblocking mode.
func OpenEvdev(logger *slog.Logger) (*EvdevReader, error) {
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("analog: scan devices: %w", err)
	}

	for _, path := range paths {
		f, err := os.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			continue
		}
		name, err := deviceName(f.Fd())
		if err != nil || !strings.Contains(name, "Wooting") {
			_ = f.Close()
			continue
		}
		if err := unix.SetNonblock(int(f.Fd()), true); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("analog: set nonblocking %s: %w", path, err)
		}
		logger.Info("analog input opened", "path", path, "name", name)
		return &EvdevReader{
			f:      f,
			depths: make(map[uint16]float32, len(usageByCode)),
		}, nil
	}
	return nil, ErrNoKeyboard
}

// deviceName issues EVIOCGNAME and returns the device's reported name.
func deviceName(fd uintptr) (string, error) {
	buf := make([]byte, 256)
	// EVIOCGNAME(len) = _IOC(_IOC_READ, 'E', 0x06, len)
	req := uint(2)<<30 | uint(len(buf))<<16 | 'E'<<8 | 0x06
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return "", errno
	}
	return unix.ByteSliceToString(buf), nil
}

// pump drains pending events into the depth cache without blocking.
func (r *EvdevReader) pump() {
	for {
		n, err := r.f.Read(r.buf[:])
		if err != nil {
			// EAGAIN means the stream is drained; any other error releases
			// every key and is left for the next pump to retry.
			if !errors.Is(err, unix.EAGAIN) {
				clear(r.depths)
			}
			return
		}
		for off := 0; off+eventSize <= n; off += eventSize {
			ev := r.buf[off : off+eventSize]
			typ := binary.LittleEndian.Uint16(ev[16:18])
			code := binary.LittleEndian.Uint16(ev[18:20])
			value := int32(binary.LittleEndian.Uint32(ev[20:24]))
			if typ != evKey {
				continue
			}
			usage, ok := usageByCode[code]
			if !ok {
				continue
			}
			if value > 0 {
				r.depths[usage] = 1.0
			} else {
				r.depths[usage] = 0
			}
		}
		if n < len(r.buf) {
			return
		}
	}
}

// Depth drains pending events and returns the cached depth for usage.
func (r *EvdevReader) Depth(usage uint16) float32 {
	r.pump()
	return r.depths[usage]
}

// Close closes the event stream.
func (r *EvdevReader) Close() error { return r.f.Close() }
