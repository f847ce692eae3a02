package pkg

import "time"

const (
	// OrdersChangesTopic delivers row-level changes on the ordenes table.
	OrdersChangesTopic = "colibri.ordenes.changes"
	// OrderItemsChangesTopic delivers row-level changes on the orden_items table.
	OrderItemsChangesTopic = "colibri.orden_items.changes"
	// OrderClientsChangesTopic delivers row-level changes on the orden_clientes table.
	OrderClientsChangesTopic = "colibri.orden_clientes.changes"

	ChangeInsert = "insert"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// ChangeEvent signals that a logical table changed. Consumers refetch on any
// event and never act on the payload beyond its occurrence.
type ChangeEvent struct {
	EventType  string    `json:"event_type"`
	Table      string    `json:"table"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ChangeTopics lists every topic a live view must watch.
func ChangeTopics() []string {
	return []string{OrdersChangesTopic, OrderItemsChangesTopic, OrderClientsChangesTopic}
}

// TableForTopic maps a change topic back to its logical table name.
func TableForTopic(topic string) string {
	switch topic {
	case OrdersChangesTopic:
		return "ordenes"
	case OrderItemsChangesTopic:
		return "orden_items"
	case OrderClientsChangesTopic:
		return "orden_clientes"
	}
	return ""
}
