package amqp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/israelio/amqp-go/internal/wire"
)

// Delivery modes for Properties.DeliveryMode.
const (
	DeliveryModeTransient  = wire.DeliveryModeTransient
	DeliveryModePersistent = wire.DeliveryModePersistent
)

// Properties is the basic class content header property list. Zero
// valued fields are left off the wire.
type Properties struct {
	ContentType     string    // MIME content type
	ContentEncoding string    // MIME content encoding
	Headers         Table     // application headers
	DeliveryMode    uint8     // DeliveryModeTransient or DeliveryModePersistent
	Priority        uint8     // 0 to 9
	CorrelationId   string    // application correlation identifier
	ReplyTo         string    // address to reply to
	Expiration      string    // message TTL in milliseconds, as a string
	MessageId       string    // application message identifier
	Timestamp       time.Time // message timestamp, second resolution
	Type            string    // message type name
	UserId          string    // creating user, validated by the broker
	AppId           string    // creating application
}

// Presence bits of the property flags word, most significant first.
const (
	flagContentType     = 0x8000
	flagContentEncoding = 0x4000
	flagHeaders         = 0x2000
	flagDeliveryMode    = 0x1000
	flagPriority        = 0x0800
	flagCorrelationId   = 0x0400
	flagReplyTo         = 0x0200
	flagExpiration      = 0x0100
	flagMessageId       = 0x0080
	flagTimestamp       = 0x0040
	flagType            = 0x0020
	flagUserId          = 0x0010
	flagAppId           = 0x0008
)

// EncodeProperties renders the property list as it appears after the
// body size in a content header frame.
func EncodeProperties(p *Properties) ([]byte, error) {
	var flags uint16
	if p.ContentType != "" {
		flags |= flagContentType
	}
	if p.ContentEncoding != "" {
		flags |= flagContentEncoding
	}
	if len(p.Headers) > 0 {
		flags |= flagHeaders
	}
	if p.DeliveryMode > 0 {
		flags |= flagDeliveryMode
	}
	if p.Priority > 0 {
		flags |= flagPriority
	}
	if p.CorrelationId != "" {
		flags |= flagCorrelationId
	}
	if p.ReplyTo != "" {
		flags |= flagReplyTo
	}
	if p.Expiration != "" {
		flags |= flagExpiration
	}
	if p.MessageId != "" {
		flags |= flagMessageId
	}
	if !p.Timestamp.IsZero() {
		flags |= flagTimestamp
	}
	if p.Type != "" {
		flags |= flagType
	}
	if p.UserId != "" {
		flags |= flagUserId
	}
	if p.AppId != "" {
		flags |= flagAppId
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, flags); err != nil {
		return nil, err
	}

	writeStr := func(set uint16, s string) error {
		if flags&set == 0 {
			return nil
		}
		return wire.WriteShortStr(&buf, s)
	}

	if err := writeStr(flagContentType, p.ContentType); err != nil {
		return nil, fmt.Errorf("content type: %w", err)
	}
	if err := writeStr(flagContentEncoding, p.ContentEncoding); err != nil {
		return nil, fmt.Errorf("content encoding: %w", err)
	}
	if flags&flagHeaders != 0 {
		if err := wire.WriteTable(&buf, p.Headers); err != nil {
			return nil, fmt.Errorf("headers: %w", err)
		}
	}
	if flags&flagDeliveryMode != 0 {
		buf.WriteByte(p.DeliveryMode)
	}
	if flags&flagPriority != 0 {
		buf.WriteByte(p.Priority)
	}
	if err := writeStr(flagCorrelationId, p.CorrelationId); err != nil {
		return nil, fmt.Errorf("correlation id: %w", err)
	}
	if err := writeStr(flagReplyTo, p.ReplyTo); err != nil {
		return nil, fmt.Errorf("reply to: %w", err)
	}
	if err := writeStr(flagExpiration, p.Expiration); err != nil {
		return nil, fmt.Errorf("expiration: %w", err)
	}
	if err := writeStr(flagMessageId, p.MessageId); err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	if flags&flagTimestamp != 0 {
		if err := binary.Write(&buf, binary.BigEndian, uint64(p.Timestamp.Unix())); err != nil {
			return nil, err
		}
	}
	if err := writeStr(flagType, p.Type); err != nil {
		return nil, fmt.Errorf("type: %w", err)
	}
	if err := writeStr(flagUserId, p.UserId); err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	if err := writeStr(flagAppId, p.AppId); err != nil {
		return nil, fmt.Errorf("app id: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeProperties parses the property list of a content header frame.
func DecodeProperties(data []byte) (*Properties, error) {
	r := bytes.NewReader(data)

	var flags uint16
	if err := binary.Read(r, binary.BigEndian, &flags); err != nil {
		return nil, fmt.Errorf("property flags: %w", err)
	}

	p := &Properties{}

	readStr := func(set uint16, dst *string) error {
		if flags&set == 0 {
			return nil
		}
		s, err := wire.ReadShortStr(r)
		if err != nil {
			return err
		}
		*dst = s
		return nil
	}

	if err := readStr(flagContentType, &p.ContentType); err != nil {
		return nil, fmt.Errorf("content type: %w", err)
	}
	if err := readStr(flagContentEncoding, &p.ContentEncoding); err != nil {
		return nil, fmt.Errorf("content encoding: %w", err)
	}
	if flags&flagHeaders != 0 {
		t, err := wire.ReadTable(r)
		if err != nil {
			return nil, fmt.Errorf("headers: %w", err)
		}
		p.Headers = t
	}
	if flags&flagDeliveryMode != 0 {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("delivery mode: %w", err)
		}
		p.DeliveryMode = b
	}
	if flags&flagPriority != 0 {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("priority: %w", err)
		}
		p.Priority = b
	}
	if err := readStr(flagCorrelationId, &p.CorrelationId); err != nil {
		return nil, fmt.Errorf("correlation id: %w", err)
	}
	if err := readStr(flagReplyTo, &p.ReplyTo); err != nil {
		return nil, fmt.Errorf("reply to: %w", err)
	}
	if err := readStr(flagExpiration, &p.Expiration); err != nil {
		return nil, fmt.Errorf("expiration: %w", err)
	}
	if err := readStr(flagMessageId, &p.MessageId); err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	if flags&flagTimestamp != 0 {
		var ts uint64
		if err := binary.Read(r, binary.BigEndian, &ts); err != nil {
			return nil, fmt.Errorf("timestamp: %w", err)
		}
		p.Timestamp = time.Unix(int64(ts), 0)
	}
	if err := readStr(flagType, &p.Type); err != nil {
		return nil, fmt.Errorf("type: %w", err)
	}
	if err := readStr(flagUserId, &p.UserId); err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	if err := readStr(flagAppId, &p.AppId); err != nil {
		return nil, fmt.Errorf("app id: %w", err)
	}

	return p, nil
}

// Common property presets.
var (
	// MinimalBasic carries no properties at all.
	MinimalBasic = Properties{}

	// MinimalPersistentBasic survives a broker restart on a durable queue.
	MinimalPersistentBasic = Properties{DeliveryMode: DeliveryModePersistent}

	// TextPlain marks the body as plain text.
	TextPlain = Properties{ContentType: "text/plain"}

	// PersistentTextPlain marks the body as plain text and persists it.
	PersistentTextPlain = Properties{ContentType: "text/plain", DeliveryMode: DeliveryModePersistent}
)
