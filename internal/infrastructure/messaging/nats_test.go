package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "shifttracker.clock.clockin", Subject("shifttracker", "clock.clockin"))
	assert.Equal(t, "clock.clockout", Subject("", "clock.clockout"))
}

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope("clock.clockout", "d1", map[string]interface{}{"duration_hours": 8.5})

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "clock.clockout", env.EventType)
	assert.Equal(t, "d1", env.DriverID)
	assert.False(t, env.OccurredAt.IsZero())

	payload, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"driver_id":"d1"`)
	assert.Contains(t, string(payload), `"duration_hours":8.5`)
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(zap.NewNop())
	assert.NoError(t, p.PublishDriverEvent(context.Background(), "clock.clockin", "d1", nil))
}
