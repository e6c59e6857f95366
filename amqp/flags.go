package amqp

import "strings"

// Flag is a bitmask of the boolean options the declare, bind, delete,
// purge and publish operations accept. Each operation reads only the
// flags its wire method defines and ignores the rest.
type Flag uint32

const (
	// Durable survives a broker restart (exchanges and queues).
	Durable Flag = 1 << iota
	// AutoDelete removes the entity once no longer in use.
	AutoDelete
	// Passive asserts existence instead of creating.
	Passive
	// Internal hides the exchange from direct publishing.
	Internal
	// Exclusive restricts the queue to this connection.
	Exclusive
	// IfUnused guards deletion on the entity having no users.
	IfUnused
	// IfEmpty guards queue deletion on the queue holding no messages.
	IfEmpty
	// NoWait asks the broker not to send a completion reply.
	NoWait
	// Mandatory returns unroutable publishes instead of dropping them.
	Mandatory
	// Immediate returns publishes no consumer can take right away.
	Immediate
)

// Has reports whether every bit of x is set.
func (f Flag) Has(x Flag) bool {
	return f&x == x
}

var flagNames = []struct {
	bit  Flag
	name string
}{
	{Durable, "durable"},
	{AutoDelete, "auto-delete"},
	{Passive, "passive"},
	{Internal, "internal"},
	{Exclusive, "exclusive"},
	{IfUnused, "if-unused"},
	{IfEmpty, "if-empty"},
	{NoWait, "no-wait"},
	{Mandatory, "mandatory"},
	{Immediate, "immediate"},
}

func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.bit) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
