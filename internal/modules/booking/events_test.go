package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureJSON struct {
	key string
	v   any
}

func (c *captureJSON) PublishJSON(_ context.Context, routingKey string, v any) error {
	c.key, c.v = routingKey, v
	return nil
}

func TestBrokerPublisher_RoutesByTargetStatus(t *testing.T) {
	c := &captureJSON{}
	p := NewBrokerPublisher(c)

	err := p.Publish(context.Background(), Event{BookingID: "b1", FromStatus: StatusConfirmed, ToStatus: StatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, "booking.in_progress", c.key)
	e, ok := c.v.(Event)
	require.True(t, ok)
	assert.Equal(t, StatusConfirmed, e.FromStatus)
}
