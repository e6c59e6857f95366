package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Table is an AMQP field table. Values are restricted to the field types
// the grammar can carry: booleans, the fixed-width integer and float
// kinds, strings, byte arrays, timestamps, arrays, nil and nested tables.
type Table map[string]interface{}

// Field type indicators. RabbitMQ's dialect of 0-9-1, which differs from
// the published grammar for several integer kinds.
const (
	typeBool      = 't'
	typeInt8      = 'b'
	typeUint8     = 'B'
	typeInt16     = 's'
	typeUint16    = 'u'
	typeInt32     = 'I'
	typeUint32    = 'i'
	typeInt64     = 'l'
	typeFloat32   = 'f'
	typeFloat64   = 'd'
	typeString    = 'S'
	typeBytes     = 'x'
	typeArray     = 'A'
	typeTimestamp = 'T'
	typeTable     = 'F'
	typeVoid      = 'V'
)

// ReadShortStr reads a short string: one length octet followed by the bytes.
func ReadShortStr(r io.Reader) (string, error) {
	var n uint8
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", fmt.Errorf("read short string length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read short string: %w", err)
	}
	return string(buf), nil
}

// WriteShortStr writes a short string, failing if it exceeds 255 octets.
func WriteShortStr(w io.Writer, s string) error {
	if len(s) > 255 {
		return fmt.Errorf("short string of %d octets exceeds 255", len(s))
	}
	if err := binary.Write(w, binary.BigEndian, uint8(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadLongStr reads a long string: a 4 octet length followed by the bytes.
func ReadLongStr(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("read long string length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read long string: %w", err)
	}
	return buf, nil
}

// WriteLongStr writes a long string.
func WriteLongStr(w io.Writer, s []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write(s)
	return err
}

// ReadTable reads a field table: a 4 octet byte length followed by
// name/value pairs.
func ReadTable(r io.Reader) (Table, error) {
	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return nil, fmt.Errorf("read table length: %w", err)
	}
	if size == 0 {
		return Table{}, nil
	}

	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}

	table := Table{}
	br := bytes.NewReader(raw)
	for br.Len() > 0 {
		name, err := ReadShortStr(br)
		if err != nil {
			return nil, fmt.Errorf("read table key: %w", err)
		}
		value, err := readValue(br)
		if err != nil {
			return nil, fmt.Errorf("read table value %q: %w", name, err)
		}
		table[name] = value
	}
	return table, nil
}

// WriteTable writes a field table. A nil or empty table encodes as a zero
// length.
func WriteTable(w io.Writer, t Table) error {
	if len(t) == 0 {
		return binary.Write(w, binary.BigEndian, uint32(0))
	}

	var body bytes.Buffer
	for name, value := range t {
		if err := WriteShortStr(&body, name); err != nil {
			return fmt.Errorf("write table key %q: %w", name, err)
		}
		if err := writeValue(&body, value); err != nil {
			return fmt.Errorf("write table value %q: %w", name, err)
		}
	}

	if err := binary.Write(w, binary.BigEndian, uint32(body.Len())); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func readValue(r *bytes.Reader) (interface{}, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch kind {
	case typeBool:
		octet, err := r.ReadByte()
		return octet != 0, err
	case typeInt8:
		var v int8
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	case typeUint8:
		var v uint8
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	case typeInt16:
		var v int16
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	case typeUint16:
		var v uint16
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	case typeInt32:
		var v int32
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	case typeUint32:
		var v uint32
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	case typeInt64:
		var v int64
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	case typeFloat32:
		var v float32
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	case typeFloat64:
		var v float64
		err := binary.Read(r, binary.BigEndian, &v)
		return v, err
	case typeString:
		s, err := ReadLongStr(r)
		return string(s), err
	case typeBytes:
		return ReadLongStr(r)
	case typeArray:
		return readArray(r)
	case typeTimestamp:
		var ts int64
		if err := binary.Read(r, binary.BigEndian, &ts); err != nil {
			return nil, err
		}
		return time.Unix(ts, 0), nil
	case typeTable:
		return ReadTable(r)
	case typeVoid:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown field type %q", kind)
	}
}

func writeValue(w *bytes.Buffer, value interface{}) error {
	switch v := value.(type) {
	case nil:
		return w.WriteByte(typeVoid)
	case bool:
		w.WriteByte(typeBool)
		if v {
			return w.WriteByte(1)
		}
		return w.WriteByte(0)
	case int8:
		w.WriteByte(typeInt8)
		return binary.Write(w, binary.BigEndian, v)
	case uint8:
		w.WriteByte(typeUint8)
		return binary.Write(w, binary.BigEndian, v)
	case int16:
		w.WriteByte(typeInt16)
		return binary.Write(w, binary.BigEndian, v)
	case uint16:
		w.WriteByte(typeUint16)
		return binary.Write(w, binary.BigEndian, v)
	case int32:
		w.WriteByte(typeInt32)
		return binary.Write(w, binary.BigEndian, v)
	case int:
		w.WriteByte(typeInt32)
		return binary.Write(w, binary.BigEndian, int32(v))
	case uint32:
		w.WriteByte(typeUint32)
		return binary.Write(w, binary.BigEndian, v)
	case int64:
		w.WriteByte(typeInt64)
		return binary.Write(w, binary.BigEndian, v)
	case float32:
		w.WriteByte(typeFloat32)
		return binary.Write(w, binary.BigEndian, v)
	case float64:
		w.WriteByte(typeFloat64)
		return binary.Write(w, binary.BigEndian, v)
	case string:
		w.WriteByte(typeString)
		return WriteLongStr(w, []byte(v))
	case []byte:
		w.WriteByte(typeBytes)
		return WriteLongStr(w, v)
	case time.Time:
		w.WriteByte(typeTimestamp)
		return binary.Write(w, binary.BigEndian, v.Unix())
	case Table:
		w.WriteByte(typeTable)
		return WriteTable(w, v)
	case map[string]interface{}:
		w.WriteByte(typeTable)
		return WriteTable(w, Table(v))
	case []interface{}:
		w.WriteByte(typeArray)
		return writeArray(w, v)
	default:
		return fmt.Errorf("unsupported table value type %T", value)
	}
}

func readArray(r *bytes.Reader) ([]interface{}, error) {
	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return nil, fmt.Errorf("read array length: %w", err)
	}

	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read array: %w", err)
	}

	values := []interface{}{}
	br := bytes.NewReader(raw)
	for br.Len() > 0 {
		v, err := readValue(br)
		if err != nil {
			return nil, fmt.Errorf("read array value: %w", err)
		}
		values = append(values, v)
	}
	return values, nil
}

func writeArray(w *bytes.Buffer, values []interface{}) error {
	var body bytes.Buffer
	for i, v := range values {
		if err := writeValue(&body, v); err != nil {
			return fmt.Errorf("write array value %d: %w", i, err)
		}
	}
	if err := binary.Write(w, binary.BigEndian, uint32(body.Len())); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}
