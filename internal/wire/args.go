package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Builder assembles the argument bytes of a method frame. Calls chain and
// errors stick: the first failure (a short string over 255 octets is the
// usual one) is reported by Build and later writes are ignored.
type Builder struct {
	buf  bytes.Buffer
	bits []bool
	err  error
}

// NewBuilder returns an empty argument builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Uint8(v uint8) *Builder {
	if b.err != nil {
		return b
	}
	b.flushBits()
	b.buf.WriteByte(v)
	return b
}

func (b *Builder) Uint16(v uint16) *Builder {
	if b.err != nil {
		return b
	}
	b.flushBits()
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *Builder) Uint32(v uint32) *Builder {
	if b.err != nil {
		return b
	}
	b.flushBits()
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *Builder) Uint64(v uint64) *Builder {
	if b.err != nil {
		return b
	}
	b.flushBits()
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

// ShortStr writes a short string: one length octet followed by the bytes.
func (b *Builder) ShortStr(s string) *Builder {
	if b.err != nil {
		return b
	}
	b.flushBits()
	if len(s) > 255 {
		b.err = fmt.Errorf("short string of %d octets exceeds 255", len(s))
		return b
	}
	b.buf.WriteByte(byte(len(s)))
	b.buf.WriteString(s)
	return b
}

// LongStr writes a long string: a 4 octet length followed by the bytes.
func (b *Builder) LongStr(s []byte) *Builder {
	if b.err != nil {
		return b
	}
	b.flushBits()
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(len(s)))
	b.buf.Write(tmp[:])
	b.buf.Write(s)
	return b
}

// Bits packs consecutive bit fields least significant bit first, one octet
// per eight bits. The grammar packs only adjacent bits together, so each
// method's full bit run must arrive in a single call.
func (b *Builder) Bits(bits ...bool) *Builder {
	if b.err != nil {
		return b
	}
	b.bits = append(b.bits, bits...)
	return b
}

// Table writes a field table.
func (b *Builder) Table(t Table) *Builder {
	if b.err != nil {
		return b
	}
	b.flushBits()
	if err := WriteTable(&b.buf, t); err != nil {
		b.err = err
	}
	return b
}

// Build flushes any trailing bits and returns the accumulated bytes.
func (b *Builder) Build() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.flushBits()
	return b.buf.Bytes(), nil
}

func (b *Builder) flushBits() {
	for len(b.bits) > 0 {
		n := len(b.bits)
		if n > 8 {
			n = 8
		}
		var octet byte
		for i := 0; i < n; i++ {
			if b.bits[i] {
				octet |= 1 << uint(i)
			}
		}
		b.buf.WriteByte(octet)
		b.bits = b.bits[n:]
	}
	b.bits = nil
}

// Fields walks the argument bytes of a decoded method.
type Fields struct {
	r *bytes.Reader
}

// NewFields wraps the argument bytes of a method for sequential decoding.
func NewFields(data []byte) *Fields {
	return &Fields{r: bytes.NewReader(data)}
}

func (f *Fields) Uint8() (uint8, error) {
	return f.r.ReadByte()
}

func (f *Fields) Uint16() (uint16, error) {
	var tmp [2]byte
	if _, err := io.ReadFull(f.r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(tmp[:]), nil
}

func (f *Fields) Uint32() (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(f.r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func (f *Fields) Uint64() (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(f.r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(tmp[:]), nil
}

// Bool reads one octet of packed bits and reports whether the first bit is set.
func (f *Fields) Bool() (bool, error) {
	octet, err := f.r.ReadByte()
	if err != nil {
		return false, err
	}
	return octet&1 == 1, nil
}

// Bits reads n packed bit fields, consuming one octet per eight bits.
func (f *Fields) Bits(n int) ([]bool, error) {
	bits := make([]bool, 0, n)
	for n > 0 {
		octet, err := f.r.ReadByte()
		if err != nil {
			return nil, err
		}
		take := n
		if take > 8 {
			take = 8
		}
		for i := 0; i < take; i++ {
			bits = append(bits, octet&(1<<uint(i)) != 0)
		}
		n -= take
	}
	return bits, nil
}

// ShortStr reads a short string.
func (f *Fields) ShortStr() (string, error) {
	return ReadShortStr(f.r)
}

// LongStr reads a long string.
func (f *Fields) LongStr() ([]byte, error) {
	return ReadLongStr(f.r)
}

// Table reads a field table.
func (f *Fields) Table() (Table, error) {
	return ReadTable(f.r)
}

// Remaining reports how many undecoded octets are left.
func (f *Fields) Remaining() int {
	return f.r.Len()
}
