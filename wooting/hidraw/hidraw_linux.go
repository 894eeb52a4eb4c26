//go:build linux

// Package hidraw opens the keyboard's vendor HID interface through the
// Linux hidraw driver and exposes it as a wooting.Transport.
//
// Enumeration walks /sys/class/hidraw: the vendor ID comes from the
// HID_ID field of the device uevent, the usage page from the first
// global Usage Page item of the report descriptor. Only the interface
// advertising the writable vendor usage page is opened.
package hidraw

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unsafe"

	"github.com/aduadu321/wooting-aim/wooting"

	"golang.org/x/sys/unix"
)

// ErrNoDevice is returned when no interface matches the vendor ID and
// writable usage page.
var ErrNoDevice = errors.New("hidraw: no matching vendor interface")

const sysClassHidraw = "/sys/class/hidraw"

// ioctl direction and encoding, from <linux/hidraw.h>:
// HIDIOCSFEATURE(len) = _IOC(_IOC_WRITE|_IOC_READ, 'H', 0x06, len)
// HIDIOCGFEATURE(len) = _IOC(_IOC_WRITE|_IOC_READ, 'H', 0x07, len)
const (
	iocWrite = 1
	iocRead  = 2

	hidIoctlType = 'H'
	hidSetFeat   = 0x06
	hidGetFeat   = 0x07
)

func hidIoc(nr, size uint) uint {
	return (iocRead|iocWrite)<<30 | size<<16 | hidIoctlType<<8 | nr
}

// Device is an open hidraw node. It satisfies wooting.Transport.
type Device struct {
	f    *os.File
	path string
}

var _ wooting.Transport = (*Device)(nil)

// Open enumerates hidraw nodes and opens the first one matching the
// Wooting vendor ID on the writable vendor usage page.
func Open(logger *slog.Logger) (*Device, error) {
	nodes, err := filepath.Glob(filepath.Join(sysClassHidraw, "hidraw*"))
	if err != nil {
		return nil, fmt.Errorf("hidraw: enumerate: %w", err)
	}

	for _, node := range nodes {
		vendor, product, ok := parseHIDID(filepath.Join(node, "device", "uevent"))
		if !ok || vendor != wooting.VendorID {
			continue
		}

		desc, err := os.ReadFile(filepath.Join(node, "device", "report_descriptor"))
		if err != nil {
			continue
		}
		page, ok := usagePage(desc)
		if !ok || page != wooting.VendorUsagePage {
			continue
		}

		dev := filepath.Join("/dev", filepath.Base(node))
		f, err := os.OpenFile(dev, os.O_RDWR, 0)
		if err != nil {
			return nil, fmt.Errorf("hidraw: open %s: %w", dev, err)
		}
		if err := unix.SetNonblock(int(f.Fd()), true); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("hidraw: set nonblocking %s: %w", dev, err)
		}
		logger.Info("device opened",
			"path", dev,
			"vendor", fmt.Sprintf("%04x", vendor),
			"product", fmt.Sprintf("%04x", product),
			"usage_page", fmt.Sprintf("%04x", page))
		return &Device{f: f, path: dev}, nil
	}

	return nil, ErrNoDevice
}

// parseHIDID extracts vendor and product from a hidraw uevent, where
// HID_ID has the form bus:vendor:product in hex.
func parseHIDID(ueventPath string) (vendor, product uint16, ok bool) {
	data, err := os.ReadFile(ueventPath)
	if err != nil {
		return 0, 0, false
	}
	for _, line := range strings.Split(string(data), "\n") {
		val, found := strings.CutPrefix(line, "HID_ID=")
		if !found {
			continue
		}
		parts := strings.Split(val, ":")
		if len(parts) != 3 {
			return 0, 0, false
		}
		v, err1 := strconv.ParseUint(parts[1], 16, 32)
		p, err2 := strconv.ParseUint(parts[2], 16, 32)
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return uint16(v), uint16(p), true
	}
	return 0, 0, false
}

// usagePage scans a report descriptor for the first global Usage Page
// item and returns its value.
func usagePage(desc []byte) (uint16, bool) {
	i := 0
	for i < len(desc) {
		prefix := desc[i]
		if prefix == 0xFE { // long item: skip
			if i+2 >= len(desc) {
				return 0, false
			}
			i += 3 + int(desc[i+1])
			continue
		}
		size := int(prefix & 3)
		if size == 3 {
			size = 4
		}
		tag := prefix >> 4
		typ := prefix >> 2 & 3
		if i+1+size > len(desc) {
			return 0, false
		}
		if typ == 1 && tag == 0 { // global, usage page
			var v uint32
			for j := 0; j < size; j++ {
				v |= uint32(desc[i+1+j]) << (8 * uint(j))
			}
			return uint16(v), true
		}
		i += 1 + size
	}
	return 0, false
}

func (d *Device) ioctl(req uint, buf []byte) (int, error) {
	n, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		d.f.Fd(),
		uintptr(req),
		uintptr(unsafe.Pointer(&buf[0])),
	)
	if errno != 0 {
		return -1, errno
	}
	return int(n), nil
}

// Write sends an output report. buf[0] is the report ID.
func (d *Device) Write(buf []byte) (int, error) {
	return d.f.Write(buf)
}

// ReadTimeout reads one input report, waiting at most dur for data.
// A timeout returns (0, nil); hidraw strips nothing, so the report ID
// is the first byte when the device numbers its reports.
func (d *Device) ReadTimeout(buf []byte, dur time.Duration) (int, error) {
	fds := []unix.PollFd{{Fd: int32(d.f.Fd()), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, int(dur.Milliseconds()))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, fmt.Errorf("hidraw: poll: %w", err)
		}
		if n == 0 {
			return 0, nil
		}
		break
	}

	n, err := d.f.Read(buf)
	if err != nil {
		if errors.Is(err, syscall.EAGAIN) {
			return 0, nil
		}
		return -1, fmt.Errorf("hidraw: read: %w", err)
	}
	return n, nil
}

// SendFeature issues SET_FEATURE for the report in buf.
func (d *Device) SendFeature(buf []byte) (int, error) {
	n, err := d.ioctl(hidIoc(hidSetFeat, uint(len(buf))), buf)
	if err != nil {
		return -1, fmt.Errorf("hidraw: set feature: %w", err)
	}
	return n, nil
}

// GetFeature issues GET_FEATURE for the report ID in buf[0].
func (d *Device) GetFeature(buf []byte) (int, error) {
	n, err := d.ioctl(hidIoc(hidGetFeat, uint(len(buf))), buf)
	if err != nil {
		return -1, fmt.Errorf("hidraw: get feature: %w", err)
	}
	return n, nil
}

// Path returns the opened device node.
func (d *Device) Path() string { return d.path }

// Close closes the device node.
func (d *Device) Close() error { return d.f.Close() }
