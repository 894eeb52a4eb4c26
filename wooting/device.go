package wooting

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Post-write settle times. RAM-only writes need a short pause; anything
// flash-bound needs much longer. Skipping the subsequent drain leaves
// stale responses in the pipe that corrupt later reads.
const (
	ramSettle   = 5 * time.Millisecond
	flashSettle = 50 * time.Millisecond
	saveSettle  = 200 * time.Millisecond
	drainSlice  = 50 * time.Millisecond
	ackTimeout  = time.Second
)

// ProfileUnknown is the active-profile value before any activation.
const ProfileUnknown = -1

// FrameTracer receives a copy of every frame crossing the transport,
// for trace-level diagnostics. dir is "cmd" or "feat" for the
// feature-report path, "out" or "in" for data reports.
type FrameTracer interface {
	Frame(dir string, frame []byte)
}

// Device is a session with one keyboard's vendor interface. It is
// exclusively owned by its caller; methods are not safe for concurrent
// use.
type Device struct {
	t       Transport
	logger  *slog.Logger
	tracer  FrameTracer
	profile int
}

// NewDevice wraps an opened transport. The active profile starts
// unknown; call Handshake before any write.
func NewDevice(t Transport, logger *slog.Logger) *Device {
	return &Device{t: t, logger: logger, profile: ProfileUnknown}
}

// TraceFrames installs a tracer that sees every frame sent to and
// drained from the device.
func (d *Device) TraceFrames(t FrameTracer) { d.tracer = t }

func (d *Device) trace(dir string, frame []byte) {
	if d.tracer != nil {
		d.tracer.Frame(dir, frame)
	}
}

// ActiveProfile returns the cached active profile index, or
// ProfileUnknown.
func (d *Device) ActiveProfile() int { return d.profile }

// Close releases the underlying transport.
func (d *Device) Close() error { return d.t.Close() }

// sendCommand issues a feature-report command with a 32-bit parameter.
func (d *Device) sendCommand(cmd uint8, param uint32) error {
	frame := BuildCommand(cmd, param)
	d.trace("cmd", frame)
	if _, err := d.t.SendFeature(frame); err != nil {
		return fmt.Errorf("send command %d: %w", cmd, err)
	}
	return nil
}

// readFeatureResponse fetches and parses the feature-report response to
// a previously sent command.
func (d *Device) readFeatureResponse() (Response, error) {
	buf := make([]byte, 256)
	buf[0] = 0x01
	n, err := d.t.GetFeature(buf)
	if err != nil {
		return Response{}, fmt.Errorf("get feature response: %w", err)
	}
	if n < 1 {
		return Response{}, ErrFraming
	}
	d.trace("feat", buf[:n])
	return ParseResponse(buf[:n], 1)
}

// drainInput discards pending input reports until a short read window
// passes with nothing arriving.
func (d *Device) drainInput(slice time.Duration) {
	buf := make([]byte, 2048)
	for {
		n, err := d.t.ReadTimeout(buf, slice)
		if err != nil || n <= 0 {
			return
		}
		d.trace("in", buf[:n])
	}
}

// sendData frames and writes a data report, then settles and flushes
// the response so the pipe stays clear.
func (d *Device) sendData(cmd, options uint8, body []byte) error {
	frame := BuildData(cmd, options, body)
	d.trace("out", frame)
	if _, err := d.t.Write(frame); err != nil {
		return fmt.Errorf("send data %d: %w", cmd, err)
	}

	settle := ramSettle
	if options&1 != 0 {
		settle = flashSettle
	}
	time.Sleep(settle)
	d.drainInput(settle)
	return nil
}

// Handshake unlocks the write path. The feature-report exchange is
// tried first; firmware revisions that reject it accept the same magic
// in a data-frame body, after which any unsolicited input reports are
// flushed. The fallback path carries no status to check.
func (d *Device) Handshake() error {
	if err := d.sendCommand(CmdHandshake, handshakeMagic); err == nil {
		if resp, err := d.readFeatureResponse(); err == nil && resp.Status == StatusSuccess {
			d.logger.Debug("handshake ok", "path", "feature")
			return nil
		}
	}

	body := []byte{
		handshakeByte,
		byte(handshakeMagic & 0xFF),
		byte(handshakeMagic >> 8 & 0xFF),
		byte(handshakeMagic >> 16 & 0xFF),
		byte(handshakeMagic >> 24),
	}
	frame := BuildData(CmdHandshake, 0, body)
	d.trace("out", frame)
	if _, err := d.t.Write(frame); err != nil {
		return fmt.Errorf("handshake fallback: %w", err)
	}
	time.Sleep(flashSettle)
	d.drainInput(drainSlice)
	d.logger.Debug("handshake ok", "path", "data")
	return nil
}

// ActivateProfile switches the keyboard to profile idx (0-3). The
// reload command is deliberately not issued afterwards: reload resets
// RAM back to flash and would discard every RAM write made so far.
// Activating the already-active profile is a no-op.
func (d *Device) ActivateProfile(idx int) error {
	if idx < 0 || idx > 3 {
		return fmt.Errorf("activate profile: index %d out of range", idx)
	}
	if d.profile == idx {
		return nil
	}
	if err := d.sendCommand(CmdActivateProfile, uint32(idx)); err != nil {
		return err
	}
	time.Sleep(flashSettle)
	d.drainInput(drainSlice)
	d.profile = idx
	d.logger.Debug("profile activated", "profile", idx)
	return nil
}

// WriteActuation writes per-key actuation points. save=false keeps the
// change in RAM.
func (d *Device) WriteActuation(profile int, keys []KeySetting, save bool) error {
	if len(keys) == 0 {
		return errors.New("write actuation: no keys")
	}
	return d.sendData(CmdActuation, Options(profile, save), BuildKeyMap(keys))
}

// WriteRapidTrigger writes per-key rapid-trigger sensitivities.
func (d *Device) WriteRapidTrigger(profile int, keys []KeySetting, save bool) error {
	if len(keys) == 0 {
		return errors.New("write rapid trigger: no keys")
	}
	return d.sendData(CmdRapidTrigger, Options(profile, save), BuildKeyMap(keys))
}

// SaveToFlash persists the active profile. Use sparingly; every save
// wears the flash and blocks the device for a long settle.
func (d *Device) SaveToFlash() error {
	if err := d.sendCommand(CmdSaveProfile, 0); err != nil {
		return err
	}
	time.Sleep(saveSettle)
	d.drainInput(drainSlice)
	return nil
}

// readProfile issues a GET command and collects the body. The device
// answers with an ack input report; the body is either inline or in a
// follow-up report.
func (d *Device) readProfile(cmd uint8, profile int) ([]byte, error) {
	if err := d.sendCommand(cmd, uint32(profile)); err != nil {
		return nil, err
	}

	buf := make([]byte, 2048)
	n, err := d.t.ReadTimeout(buf, ackTimeout)
	if err != nil {
		return nil, fmt.Errorf("read profile ack: %w", err)
	}
	if n < 7 {
		return nil, ErrFraming
	}
	d.trace("in", buf[:n])

	resp, err := ParseResponse(buf[:n], 1)
	if err != nil {
		return nil, err
	}
	if resp.Status != StatusSuccess {
		return nil, resp.Err()
	}
	if len(resp.Body) > 0 {
		body := make([]byte, len(resp.Body))
		copy(body, resp.Body)
		return body, nil
	}

	n, err = d.t.ReadTimeout(buf, ackTimeout)
	if err != nil {
		return nil, fmt.Errorf("read profile body: %w", err)
	}
	d.trace("in", buf[:n])
	body := make([]byte, n)
	copy(body, buf[:n])
	return body, nil
}

// ReadActuation reads the raw actuation map of a profile.
func (d *Device) ReadActuation(profile int) ([]byte, error) {
	return d.readProfile(CmdGetActuation, profile)
}

// ReadRapidTrigger reads the raw rapid-trigger map of a profile.
func (d *Device) ReadRapidTrigger(profile int) ([]byte, error) {
	return d.readProfile(CmdGetRapidTrigger, profile)
}
