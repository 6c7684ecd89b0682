package message_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/message"
	"github.com/waivern/wct/schema"
)

type payload struct {
	Name string `json:"name"`
}

func TestNewAndDecodeRoundTrip(t *testing.T) {
	sch := schema.New("test_payload", "1.0.0", nil)
	msg, err := message.New(sch, payload{Name: "alice"})
	require.NoError(t, err)

	var got payload
	require.NoError(t, msg.Decode(&got))
	require.Equal(t, "alice", got.Name)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	sch := schema.New("test_payload", "1.0.0", nil)
	msg, err := message.New(sch, payload{Name: "bob"})
	require.NoError(t, err)

	data, err := msg.MarshalJSON()
	require.NoError(t, err)

	resolved, err := message.UnmarshalInto(data, func(name, version string) *schema.Schema {
		return schema.New(name, version, nil)
	})
	require.NoError(t, err)
	require.True(t, msg.Schema.Equal(resolved.Schema))

	var got payload
	require.NoError(t, resolved.Decode(&got))
	require.Equal(t, "bob", got.Name)
}
