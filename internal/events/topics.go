package events

// Topic constants for domain events emitted by the cart workflow.
const (
	TopicOrderCreated = "order.created"
	TopicCartsPurged  = "cart.purged"
)
