package amqp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/israelio/amqp-go/internal/wire"
)

func TestPublishFrameSequence(t *testing.T) {
	ch, tr := newTestChannel(3, nil)

	body := []byte(`{"order":42}`)
	err := ch.Publish("orders", "order.created", 0, Publishing{
		Properties: Properties{ContentType: "application/json", DeliveryMode: DeliveryModePersistent},
		Body:       body,
	})
	require.NoError(t, err)
	require.Len(t, tr.frames, 3)

	m := tr.method(t, 0)
	require.Equal(t, uint16(wire.ClassBasic), m.ClassID)
	require.Equal(t, uint16(wire.BasicPublish), m.MethodID)
	fields := wire.NewFields(m.Args)
	_, err = fields.Uint16()
	require.NoError(t, err)
	exchange, err := fields.ShortStr()
	require.NoError(t, err)
	require.Equal(t, "orders", exchange)
	key, err := fields.ShortStr()
	require.NoError(t, err)
	require.Equal(t, "order.created", key)

	h, err := tr.frames[1].ParseHeader()
	require.NoError(t, err)
	require.Equal(t, uint16(wire.ClassBasic), h.ClassID)
	require.Equal(t, uint16(0), h.Weight)
	require.Equal(t, uint64(len(body)), h.BodySize)
	props, err := DecodeProperties(h.Properties)
	require.NoError(t, err)
	require.Equal(t, "application/json", props.ContentType)
	require.Equal(t, uint8(DeliveryModePersistent), props.DeliveryMode)

	require.Equal(t, uint8(wire.FrameBody), tr.frames[2].Type)
	require.Equal(t, uint16(3), tr.frames[2].Channel)
	require.Equal(t, body, tr.frames[2].Payload)
}

func TestPublishSplitsLargeBody(t *testing.T) {
	ch, tr := newTestChannel(3, nil)
	tr.body = 8

	body := []byte("abcdefghijklmnopqrst") // 20 octets
	err := ch.Publish("", "jobs", 0, Publishing{Body: body})
	require.NoError(t, err)

	// method, header, then three body frames of 8, 8 and 4 octets
	require.Len(t, tr.frames, 5)
	var joined bytes.Buffer
	for _, f := range tr.frames[2:] {
		require.Equal(t, uint8(wire.FrameBody), f.Type)
		require.LessOrEqual(t, len(f.Payload), 8)
		joined.Write(f.Payload)
	}
	require.Equal(t, body, joined.Bytes())
}

func TestPublishEmptyBody(t *testing.T) {
	ch, tr := newTestChannel(3, nil)

	err := ch.Publish("orders", "noop", 0, Publishing{})
	require.NoError(t, err)

	// No body frames follow a zero length header.
	require.Len(t, tr.frames, 2)
	h, err := tr.frames[1].ParseHeader()
	require.NoError(t, err)
	require.Equal(t, uint64(0), h.BodySize)
}

func TestPublishFlags(t *testing.T) {
	ch, tr := newTestChannel(3, nil)

	err := ch.Publish("orders", "order.created", Mandatory, Publishing{Body: []byte("x")})
	require.NoError(t, err)

	fields := wire.NewFields(tr.method(t, 0).Args)
	_, err = fields.Uint16()
	require.NoError(t, err)
	_, err = fields.ShortStr()
	require.NoError(t, err)
	_, err = fields.ShortStr()
	require.NoError(t, err)

	// mandatory, immediate
	bits, err := fields.Bits(2)
	require.NoError(t, err)
	require.Equal(t, []bool{true, false}, bits)
}

func TestPublishDefaultExchange(t *testing.T) {
	ch, tr := newTestChannel(3, nil)

	err := ch.Publish("", "jobs", 0, Publishing{Body: []byte("x")})
	require.NoError(t, err)

	fields := wire.NewFields(tr.method(t, 0).Args)
	_, err = fields.Uint16()
	require.NoError(t, err)
	exchange, err := fields.ShortStr()
	require.NoError(t, err)
	require.Equal(t, "", exchange)
}

func TestPublishOnClosedChannel(t *testing.T) {
	ch, tr := newTestChannel(3, nil)
	ch.reportClosed()

	err := ch.Publish("orders", "k", 0, Publishing{Body: []byte("x")})
	require.ErrorIs(t, err, ErrChannelClosed)
	require.Empty(t, tr.frames)
}

func TestSplitBody(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		max  int
		want []int
	}{
		{"empty", nil, 8, nil},
		{"fits", []byte("abc"), 8, []int{3}},
		{"exact", []byte("abcdefgh"), 8, []int{8}},
		{"split", []byte("abcdefghi"), 8, []int{8, 1}},
		{"unlimited", []byte("abc"), 0, []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitBody(tt.body, tt.max)
			require.Len(t, chunks, len(tt.want))
			var total int
			for i, chunk := range chunks {
				require.Len(t, chunk, tt.want[i])
				total += len(chunk)
			}
			require.Equal(t, len(tt.body), total)
		})
	}
}
