//go:build !tinygo && !baremetal

package stub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	proto "github.com/ystepanoff/rclink/protocol"
	"github.com/ystepanoff/rclink/transport"
)

var _ transport.RadioDriver = (*Driver)(nil)

func TestDriverInjectAndRead(t *testing.T) {
	d := New()
	assert.False(t, d.Available())

	d.InjectRx([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.True(t, d.Available())

	buf := make([]byte, proto.MaxPayloadSize)
	n, err := d.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf[:n])

	n, err = d.Read(buf)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestDriverWrite(t *testing.T) {
	d := New()

	require.NoError(t, d.Write([]byte{9}))
	assert.Equal(t, [][]byte{{9}}, d.GetTxLog())
	assert.False(t, d.Available(), "plain stub does not loop back")

	assert.ErrorIs(t, d.Write(make([]byte, proto.MaxPayloadSize+1)), proto.ErrInvalidPayload)
}

func TestLoopback(t *testing.T) {
	d := NewLoopback()
	tx := transport.NewTransmitterWithDriver(d, nil)
	src := transport.NewRadioSource(d, nil, nil)

	require.NoError(t, src.Initialise(proto.DefaultRadioConfig()))
	assert.Equal(t, proto.DefaultRadioConfig(), d.Config())

	want := proto.CommandPacket{Throttle: 99, Roll: 127, Pitch: 127, Yaw: 127, Aux1: 1}
	require.NoError(t, tx.Send(want))

	got, ok := src.TryReceive()
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestConfigureRejectsInvalid(t *testing.T) {
	d := New()
	cfg := proto.DefaultRadioConfig()
	cfg.Channel = 126
	assert.ErrorIs(t, d.Configure(cfg), proto.ErrInvalidChannel)
}

func TestDropped(t *testing.T) {
	d := New()
	for i := 0; i < 70; i++ {
		d.InjectRx([]byte{byte(i)})
	}
	assert.Equal(t, uint64(6), d.Dropped())
}
