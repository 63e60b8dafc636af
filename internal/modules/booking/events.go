// README: Booking status events published to the message broker for downstream notifiers.
package booking

import "context"

// JSONPublisher is satisfied by infra.Publisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

type BrokerPublisher struct {
	pub JSONPublisher
}

func NewBrokerPublisher(pub JSONPublisher) *BrokerPublisher {
	return &BrokerPublisher{pub: pub}
}

// Publish routes each event as booking.<to_status>.
func (p *BrokerPublisher) Publish(ctx context.Context, e Event) error {
	return p.pub.PublishJSON(ctx, RoutingKey(e.ToStatus), e)
}

func RoutingKey(s Status) string {
	return "booking." + string(s)
}
