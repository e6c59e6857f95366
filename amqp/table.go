package amqp

import (
	"github.com/mitchellh/mapstructure"

	"github.com/israelio/amqp-go/internal/wire"
)

// Table carries the optional arguments of declare and bind operations and
// the header fields of published messages. See the wire package for the
// value types a table can hold.
type Table = wire.Table

// DecodeTable fills out from a table using mapstructure field tags, with
// weak type conversion so broker supplied byte strings land in string
// fields. Useful for typed views of x-arguments and server properties.
func DecodeTable(t Table, out interface{}) error {
	return mapstructure.WeakDecode(map[string]interface{}(t), out)
}
