package wooting_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aduadu321/wooting-aim/wooting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport records everything sent and replays scripted feature
// and input responses.
type fakeTransport struct {
	writes      [][]byte
	features    [][]byte
	featureResp [][]byte
	featureErr  error
	inputResp   [][]byte
	closed      bool
}

func (f *fakeTransport) Write(buf []byte) (int, error) {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.writes = append(f.writes, cp)
	return len(buf), nil
}

func (f *fakeTransport) ReadTimeout(buf []byte, _ time.Duration) (int, error) {
	if len(f.inputResp) == 0 {
		return 0, nil
	}
	n := copy(buf, f.inputResp[0])
	f.inputResp = f.inputResp[1:]
	return n, nil
}

func (f *fakeTransport) SendFeature(buf []byte) (int, error) {
	if f.featureErr != nil {
		return -1, f.featureErr
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.features = append(f.features, cp)
	return len(buf), nil
}

func (f *fakeTransport) GetFeature(buf []byte) (int, error) {
	if f.featureErr != nil {
		return -1, f.featureErr
	}
	if len(f.featureResp) == 0 {
		return 0, nil
	}
	n := copy(buf, f.featureResp[0])
	f.featureResp = f.featureResp[1:]
	return n, nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func featureOK(cmd uint8) []byte {
	return []byte{0x01, 0xD1, 0xDA, cmd, wooting.StatusSuccess, 0x00, 0x00}
}

func TestHandshakeFeaturePath(t *testing.T) {
	ft := &fakeTransport{featureResp: [][]byte{featureOK(wooting.CmdHandshake)}}
	dev := wooting.NewDevice(ft, discard())

	require.NoError(t, dev.Handshake())
	require.Len(t, ft.features, 1)
	assert.Equal(t, []byte{0x01, 0xD1, 0xDA, 39, 0x5E, 0x46, 0x45, 0x7A, 0x00}, ft.features[0])
	assert.Empty(t, ft.writes, "feature path must not fall back")
}

func TestHandshakeDataFallback(t *testing.T) {
	ft := &fakeTransport{featureErr: errors.New("ioctl: not supported")}
	dev := wooting.NewDevice(ft, discard())

	require.NoError(t, dev.Handshake())
	require.Len(t, ft.writes, 1)
	w := ft.writes[0]
	require.Len(t, w, 33)
	assert.Equal(t, []byte{0x01, 0xD1, 0xDA, 39, 0x00, 0x05, 0x00, 0x01, 0x5E, 0x46, 0x45, 0x7A}, w[:12])
}

func TestHandshakeBusyFallsBack(t *testing.T) {
	ft := &fakeTransport{featureResp: [][]byte{
		{0x01, 0xD1, 0xDA, wooting.CmdHandshake, wooting.StatusBusy, 0x00, 0x00},
	}}
	dev := wooting.NewDevice(ft, discard())

	require.NoError(t, dev.Handshake())
	assert.Len(t, ft.writes, 1, "busy status must trigger the data-frame path")
}

func TestActivateProfile(t *testing.T) {
	ft := &fakeTransport{}
	dev := wooting.NewDevice(ft, discard())
	assert.Equal(t, wooting.ProfileUnknown, dev.ActiveProfile())

	require.NoError(t, dev.ActivateProfile(2))
	assert.Equal(t, 2, dev.ActiveProfile())
	require.Len(t, ft.features, 1)
	assert.Equal(t, []byte{0x01, 0xD1, 0xDA, 23, 0x02, 0x00, 0x00, 0x00, 0x00}, ft.features[0])

	// Re-activating the cached profile is a no-op.
	require.NoError(t, dev.ActivateProfile(2))
	assert.Len(t, ft.features, 1)

	assert.Error(t, dev.ActivateProfile(4))
	assert.Error(t, dev.ActivateProfile(-1))
}

func TestWriteActuationFrame(t *testing.T) {
	ft := &fakeTransport{}
	dev := wooting.NewDevice(ft, discard())

	keys := []wooting.KeySetting{{Pos: wooting.KeyD, MM: 0.4}}
	require.NoError(t, dev.WriteActuation(0, keys, false))
	require.Len(t, ft.writes, 1)
	assert.Equal(t, uint8(21), ft.writes[0][3])
	assert.Equal(t, uint8(0), ft.writes[0][4], "RAM write keeps save bit clear")

	require.NoError(t, dev.WriteRapidTrigger(1, keys, true))
	require.Len(t, ft.writes, 2)
	assert.Equal(t, uint8(25), ft.writes[1][3])
	assert.Equal(t, uint8(3), ft.writes[1][4])

	assert.Error(t, dev.WriteActuation(0, nil, false))
}

func TestReadProfileInlineBody(t *testing.T) {
	ft := &fakeTransport{inputResp: [][]byte{
		{0x01, 0xD1, 0xDA, 49, wooting.StatusSuccess, 0x03, 0x00, 0xAA, 0xBB, 0xCC},
	}}
	dev := wooting.NewDevice(ft, discard())

	body, err := dev.ReadActuation(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, body)
}

func TestReadProfileFollowupBody(t *testing.T) {
	ft := &fakeTransport{inputResp: [][]byte{
		{0x01, 0xD1, 0xDA, 54, wooting.StatusSuccess, 0x00, 0x00},
		{0x12, 0x02, 0x08, 0x10},
	}}
	dev := wooting.NewDevice(ft, discard())

	body, err := dev.ReadRapidTrigger(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x02, 0x08, 0x10}, body)
}

type recordingTracer struct {
	dirs []string
}

func (r *recordingTracer) Frame(dir string, _ []byte) {
	r.dirs = append(r.dirs, dir)
}

func TestFrameTracerSeesTraffic(t *testing.T) {
	ft := &fakeTransport{featureResp: [][]byte{featureOK(wooting.CmdHandshake)}}
	dev := wooting.NewDevice(ft, discard())
	tracer := &recordingTracer{}
	dev.TraceFrames(tracer)

	require.NoError(t, dev.Handshake())
	assert.Equal(t, []string{"cmd", "feat"}, tracer.dirs)

	tracer.dirs = nil
	keys := []wooting.KeySetting{{Pos: wooting.KeyD, MM: 0.4}}
	require.NoError(t, dev.WriteActuation(0, keys, false))
	assert.Equal(t, []string{"out"}, tracer.dirs, "no pending input to drain")
}

func TestReadProfileBadStatus(t *testing.T) {
	ft := &fakeTransport{inputResp: [][]byte{
		{0x01, 0xD1, 0xDA, 49, wooting.StatusUnsupported, 0x00, 0x00},
	}}
	dev := wooting.NewDevice(ft, discard())

	_, err := dev.ReadActuation(0)
	assert.ErrorIs(t, err, wooting.ErrUnsupported)
}
