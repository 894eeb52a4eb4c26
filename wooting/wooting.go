// Package wooting implements the vendor HID protocol used to reprogram
// per-key actuation points and rapid-trigger thresholds on Wooting
// analog keyboards (60HE family, V3 protocol).
//
// The protocol is a framed request/response exchange layered on HID
// reports: commands travel as 9-byte feature reports, bulk key data as
// padded output reports whose report ID selects the buffer capacity.
// Responses echo the command and carry a status byte.
package wooting

// Vendor identity. Only the 0xFF55 usage page interface accepts writes;
// the sibling 0xFF54 interface enumerates identically but rejects them.
const (
	VendorID        = 0x31E3
	VendorUsagePage = 0xFF55
)

// Frame magic, first two payload bytes of every request and response.
const (
	Magic0 = 0xD1
	Magic1 = 0xDA
)

const (
	handshakeByte  = 0x01
	handshakeMagic = 0x7A45465E
)

// Report commands.
const (
	CmdActuation       = 21
	CmdActivateProfile = 23
	CmdRapidTrigger    = 25
	CmdReloadProfile   = 38 // resets RAM back to flash; never sent after a RAM write
	CmdHandshake       = 39
	CmdSaveProfile     = 42
	CmdGetActuation    = 49
	CmdGetRapidTrigger = 54
)

// Response status codes.
const (
	StatusSuccess     = 0x88
	StatusBusy        = 0x77
	StatusUnsupported = 0xAA
)

// reportSizes[i] is the payload capacity of report ID i, excluding the
// report-ID byte itself. Index 0 is unused.
var reportSizes = [...]int{0, 32, 62, 254, 510, 1022, 2046}

// pickReportID returns the smallest report ID whose capacity fits
// dataSize bytes.
func pickReportID(dataSize int) int {
	for i := 1; i < len(reportSizes); i++ {
		if dataSize <= reportSizes[i] {
			return i
		}
	}
	return len(reportSizes) - 1
}
