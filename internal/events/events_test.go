package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientMessage(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"input","roomId":"r1","input":{"up":true,"left":true}}`))
	require.NoError(t, err)

	assert.Equal(t, ClientInput, msg.Type)
	assert.Equal(t, "r1", msg.RoomID)
	require.NotNil(t, msg.Input)
	assert.True(t, msg.Input.Up)
	assert.True(t, msg.Input.Left)
	assert.False(t, msg.Input.Down)
}

func TestParseClientMessageWithoutInput(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"join","roomId":"r1"}`))
	require.NoError(t, err)

	assert.Equal(t, ClientJoin, msg.Type)
	assert.Nil(t, msg.Input)
}

func TestParseClientMessageMalformed(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":`))
	assert.Error(t, err)
}
