package probebridge

import (
	"context"
	"testing"

	"github.com/go-playground/assert/v2"
)

type fakeSink struct {
	writes []fakeWrite
	failAt int
}

type fakeWrite struct {
	eventType string
	data      interface{}
}

func (s *fakeSink) Write(eventType string, data interface{}) error {
	s.writes = append(s.writes, fakeWrite{eventType: eventType, data: data})
	return nil
}

type failingSink struct{}

func (failingSink) Write(eventType string, data interface{}) error {
	return context.DeadlineExceeded
}

func TestBridge_PushDeliversToAllActiveSinks(t *testing.T) {
	b := New(nil, nil)
	a := &fakeSink{}
	c := &fakeSink{}
	b.subs[42] = []*subscription{
		{sink: a, cancel: func() {}},
		{sink: c, cancel: func() {}},
	}

	delivered := b.Push(42, "scrape_request", map[string]string{"url": "https://example.com"})

	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1, len(a.writes))
	assert.Equal(t, "scrape_request", a.writes[0].eventType)
}

func TestBridge_PushSkipsFailingSinks(t *testing.T) {
	b := New(nil, nil)
	ok := &fakeSink{}
	b.subs[7] = []*subscription{
		{sink: failingSink{}, cancel: func() {}},
		{sink: ok, cancel: func() {}},
	}

	delivered := b.Push(7, "ping", map[string]interface{}{})

	assert.Equal(t, 1, delivered)
}

func TestBridge_PushToUnknownUserDeliversNothing(t *testing.T) {
	b := New(nil, nil)
	delivered := b.Push(999, "ping", nil)
	assert.Equal(t, 0, delivered)
}

func TestBridge_UnsubscribeRemovesSinkAndCancels(t *testing.T) {
	b := New(nil, nil)
	cancelled := false
	sink := &fakeSink{}
	b.subs[1] = []*subscription{
		{sink: sink, cancel: func() { cancelled = true }},
	}

	b.Unsubscribe(1, sink)

	assert.Equal(t, true, cancelled)
	assert.Equal(t, 0, len(b.subs[1]))
}

func TestBridge_ActiveSubscriptionCount(t *testing.T) {
	b := New(nil, nil)
	b.subs[3] = []*subscription{
		{sink: &fakeSink{}, cancel: func() {}},
		{sink: &fakeSink{}, cancel: func() {}},
	}

	assert.Equal(t, 2, b.ActiveSubscriptionCount(3))
	assert.Equal(t, 0, b.ActiveSubscriptionCount(4))
}
