package wooting

import "time"

// Transport is the raw HID pipe to one vendor interface. Implementations
// deliver whole reports; buf[0] carries the report ID on writes and on
// feature exchanges.
type Transport interface {
	// Write sends an output report.
	Write(buf []byte) (int, error)

	// ReadTimeout reads one pending input report, waiting at most d.
	// A timeout returns (0, nil).
	ReadTimeout(buf []byte, d time.Duration) (int, error)

	// SendFeature issues a SET_FEATURE for the report in buf.
	SendFeature(buf []byte) (int, error)

	// GetFeature issues a GET_FEATURE for the report ID in buf[0] and
	// fills buf with the result.
	GetFeature(buf []byte) (int, error)

	Close() error
}
