package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_StampsSendTime(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.FixedZone("X", 3600))
	msg := NewErrorMessage("nope", ClosePolicyViolation)

	data, err := Encode(msg, at)

	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","timestamp":"2025-06-01T11:30:00Z","message":"nope","code":1008}`, string(data))
}

func TestEncode_EventIDOmittedWhenEmpty(t *testing.T) {
	data, err := Encode(NewHeartbeat(3), time.Unix(0, 0))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.NotContains(t, m, "event_id")
	assert.EqualValues(t, 3, m["active_connections"])
}

func TestParseClientMessage(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"subscribe","events":["task_created"]}`))
	require.NoError(t, err)
	assert.Equal(t, TypeSubscribe, msg.Type)
	assert.Equal(t, []string{"task_created"}, msg.Events)

	for _, raw := range []string{"", "{", `"ping"`, `{}`, `{"type":""}`} {
		_, err := ParseClientMessage([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedFrame, "input %q", raw)
	}
}
