package wooting

import "errors"

var (
	// ErrFraming is returned when a response does not start with the
	// protocol magic or is too short to carry a status.
	ErrFraming = errors.New("wooting: response framing error")

	// ErrBusy and ErrUnsupported surface the corresponding firmware
	// status codes.
	ErrBusy        = errors.New("wooting: device busy")
	ErrUnsupported = errors.New("wooting: command unsupported")
)

// Options composes the data-frame options byte: save flag in bit 0,
// profile index in bits 1-2.
func Options(profile int, save bool) uint8 {
	o := uint8(profile&3) << 1
	if save {
		o |= 1
	}
	return o
}

// BuildCommand builds the fixed 9-byte feature report for a command:
// [rid=1, magic, cmd, param little-endian].
func BuildCommand(cmd uint8, param uint32) []byte {
	return []byte{
		0x01,
		Magic0, Magic1,
		cmd,
		byte(param),
		byte(param >> 8),
		byte(param >> 16),
		byte(param >> 24),
		0x00,
	}
}

// BuildData frames a data payload as an output report:
// [rid, magic, cmd, options, len little-endian, body, padding]. The
// report ID is the smallest whose capacity fits the framed payload and
// the buffer is padded to that capacity.
func BuildData(cmd, options uint8, body []byte) []byte {
	const header = 6 // magic(2) + cmd + options + bodylen(2)
	rid := pickReportID(header + len(body))

	buf := make([]byte, 1+reportSizes[rid])
	buf[0] = byte(rid)
	buf[1] = Magic0
	buf[2] = Magic1
	buf[3] = cmd
	buf[4] = options
	buf[5] = byte(len(body))
	buf[6] = byte(len(body) >> 8)
	copy(buf[7:], body)
	return buf
}

// Response is a parsed device response.
type Response struct {
	Cmd    uint8
	Status uint8
	Body   []byte
}

// Err maps the response status to a sentinel error, nil on success.
func (r Response) Err() error {
	switch r.Status {
	case StatusSuccess:
		return nil
	case StatusBusy:
		return ErrBusy
	case StatusUnsupported:
		return ErrUnsupported
	default:
		return ErrFraming
	}
}

// ParseResponse parses a response buffer starting at offset. Feature
// reports keep the report-ID byte in front (offset 1); input reports
// are parsed from offset 0 or 1 depending on how the transport delivers
// them. Layout after the offset:
// [magic(2), cmd_echo, status, bodylen little-endian, body...].
func ParseResponse(buf []byte, offset int) (Response, error) {
	if len(buf) < offset+6 {
		return Response{}, ErrFraming
	}
	if buf[offset] != Magic0 || buf[offset+1] != Magic1 {
		return Response{}, ErrFraming
	}

	r := Response{
		Cmd:    buf[offset+2],
		Status: buf[offset+3],
	}
	blen := int(buf[offset+4]) | int(buf[offset+5])<<8
	if blen > 0 {
		body := buf[offset+6:]
		if blen < len(body) {
			body = body[:blen]
		}
		r.Body = body
	}
	return r, nil
}
