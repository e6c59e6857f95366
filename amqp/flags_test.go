package amqp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlagHas(t *testing.T) {
	f := Durable | AutoDelete

	require.True(t, f.Has(Durable))
	require.True(t, f.Has(AutoDelete))
	require.True(t, f.Has(Durable|AutoDelete))
	require.False(t, f.Has(Passive))
	require.False(t, f.Has(Durable|Passive))
	require.True(t, f.Has(0))
}

func TestFlagString(t *testing.T) {
	require.Equal(t, "none", Flag(0).String())
	require.Equal(t, "durable", Durable.String())
	require.Equal(t, "durable|exclusive", (Durable | Exclusive).String())
	require.Equal(t, "if-unused|if-empty|no-wait", (IfUnused | IfEmpty | NoWait).String())
}
