package order

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle states for an order. The forward flow runs new → pick → pack →
// ship → invoice; cancelada, eliminada and restaurada sit outside it.
// Transitions are user-driven and unconstrained except that eliminada is only
// entered through SoftDelete and only left through Restore.
const (
	StateNew       = "nueva orden"
	StateToPick    = "por alistar"
	StateToPack    = "por empacar"
	StateToShip    = "por despachar"
	StateToInvoice = "por facturar"
	StateCancelled = "cancelada"
	StateDeleted   = "eliminada"
	StateRestored  = "restaurada"
)

// SelectableStates lists the states a user can assign directly. Eliminada is
// excluded: it is reachable only via the delete operation.
func SelectableStates() []string {
	return []string{
		StateNew,
		StateToPick,
		StateToPack,
		StateToShip,
		StateToInvoice,
		StateCancelled,
		StateRestored,
	}
}

func IsSelectableState(s string) bool {
	for _, state := range SelectableStates() {
		if s == state {
			return true
		}
	}
	return false
}

// ClientInfo carries the order's client sub-record. Only the name is required
// when a client is present at all.
type ClientInfo struct {
	Name       string `json:"nombre" bson:"nombre"`
	Document   string `json:"documento,omitempty" bson:"documento,omitempty"`
	City       string `json:"ciudad,omitempty" bson:"ciudad,omitempty"`
	Department string `json:"departamento,omitempty" bson:"departamento,omitempty"`
	Email      string `json:"correo,omitempty" bson:"correo,omitempty"`
	Phone      string `json:"celular,omitempty" bson:"celular,omitempty"`
	Address    string `json:"direccion,omitempty" bson:"direccion,omitempty"`
}

// FlatRow is one denormalized record from the backend's flattened view: the
// order header repeated per line item. An order with no items yields exactly
// one row whose item fields are all zero.
type FlatRow struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"codigo_orden"`
	ChannelID   uuid.UUID  `json:"canal_id"`
	State       string     `json:"estado"`
	Client      ClientInfo `json:"cliente"`
	GuideNumber string     `json:"guia_numero,omitempty"`
	Carrier     string     `json:"transportadora,omitempty"`
	CarrierID   uuid.UUID  `json:"transportadora_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// Line-item fields, present together or absent together.
	ItemID   uuid.UUID `json:"item_id,omitempty"`
	SKU      string    `json:"sku,omitempty"`
	Product  string    `json:"producto,omitempty"`
	Quantity int       `json:"cantidad,omitempty"`
	Price    float64   `json:"precio,omitempty"`
	Freight  float64   `json:"flete,omitempty"`
}

// HasItem reports whether the row carries line-item fields.
func (r FlatRow) HasItem() bool {
	return r.SKU != "" || r.Product != ""
}

// LineItem is one product line inside an aggregate. The ID is nil for items
// not yet persisted.
type LineItem struct {
	ID       uuid.UUID `json:"id,omitempty" bson:"_id"`
	SKU      string    `json:"sku,omitempty" bson:"sku,omitempty"`
	Product  string    `json:"producto" bson:"producto"`
	Quantity int       `json:"cantidad" bson:"cantidad"`
	Price    float64   `json:"precio" bson:"precio"`
	Freight  float64   `json:"flete" bson:"flete"`
}

// OrderAggregate is the folded, in-memory view of one order with its line
// items in feed-encounter order. Aggregates are rebuilt on every fetch and
// never mutated in place.
type OrderAggregate struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"codigo_orden"`
	ChannelID   uuid.UUID  `json:"canal_id"`
	State       string     `json:"estado"`
	Client      ClientInfo `json:"cliente"`
	GuideNumber string     `json:"guia_numero,omitempty"`
	Carrier     string     `json:"transportadora,omitempty"`
	CarrierID   uuid.UUID  `json:"transportadora_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	Items       []LineItem `json:"items"`
}

func (a *OrderAggregate) GetID() uuid.UUID {
	return a.ID
}

func (a *OrderAggregate) ResourceType() string {
	return "orden"
}

// IsDeleted reports whether the order is soft-deleted.
func (a *OrderAggregate) IsDeleted() bool {
	return a.State == StateDeleted
}
