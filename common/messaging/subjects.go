package messaging

// Subjects follow the pattern {system}.{resource}.{action}.
const (
	// SubjectSourcingEventsUpsert carries SourcingEvent JSON to be stored.
	SubjectSourcingEventsUpsert = "lotuspetal.sourcing_events.upsert"

	// SubjectSourcingEventsUpserted is published after a successful store write.
	SubjectSourcingEventsUpserted = "lotuspetal.sourcing_events.upserted"
)

// QueueGatewayEvents is the queue group shared by gateway instances so each
// upsert message is stored once.
const QueueGatewayEvents = "gateway-events"

// HeaderTenant is the message header naming the event's tenant.
const HeaderTenant = "Lotuspetal-Tenant"
