package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectPerRoom(t *testing.T) {
	r := &Relay{prefix: "race.events"}
	assert.Equal(t, "race.events.r1", r.Subject("r1"))
	assert.Equal(t, "race.events.lobby-42", r.Subject("lobby-42"))
}

func TestDefaultConfigDisabled(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.URL, "the relay stays off until a URL is configured")
	assert.Equal(t, "race.events", cfg.SubjectPrefix)
}
