package probeagent

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestMinInt(t *testing.T) {
	assert.Equal(t, 3, minInt(3, 5))
	assert.Equal(t, 3, minInt(5, 3))
	assert.Equal(t, 3, minInt(3, 3))
}

func TestReconnectSchedule_CapsAtSixty(t *testing.T) {
	idx := minInt(100, len(reconnectSchedule)-1)
	assert.Equal(t, 60.0, reconnectSchedule[idx].Seconds())
}

func TestDispatch_PingIsNoop(t *testing.T) {
	a := &Agent{}
	a.dispatch(nil, frame{eventType: "ping", data: "{}"})
}

func TestDispatch_UnknownEventTypeDoesNotPanic(t *testing.T) {
	a := &Agent{}
	a.dispatch(nil, frame{eventType: "mystery", data: "{}"})
}
