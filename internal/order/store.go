package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CreateParams is the payload for the remote create procedure. The item set
// is ordered, primary item first; item IDs are assigned by the store.
type CreateParams struct {
	ChannelID   uuid.UUID
	Code        string
	Client      ClientInfo
	Items       []LineItem
	GuideNumber string
	CarrierID   uuid.UUID
	User        string
}

type CreateResult struct {
	OrderID uuid.UUID
	ItemIDs []uuid.UUID
}

// UpdateParams replaces the whole order: header, client and the full item set
// (delete-then-reinsert, not a merge).
type UpdateParams struct {
	OrderID     uuid.UUID
	ChannelID   uuid.UUID
	Code        string
	State       string
	Client      ClientInfo
	Items       []LineItem
	GuideNumber string
	CarrierID   uuid.UUID
	User        string
}

// OrderStore is the remote collaborator holding the single source of truth.
// FetchAll returns everything, soft-deleted rows included; visibility is a
// client-side concern.
type OrderStore interface {
	FetchAll(ctx context.Context) ([]FlatRow, error)
	Create(ctx context.Context, p CreateParams) (CreateResult, error)
	Update(ctx context.Context, p UpdateParams) error
	SoftDelete(ctx context.Context, orderID uuid.UUID, user string) error
	Restore(ctx context.Context, orderID uuid.UUID, user string) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error)
	HardDelete(ctx context.Context, orderID uuid.UUID) error
	ListCodes(ctx context.Context) ([]string, error)
}

type Channel struct {
	ID   uuid.UUID `json:"id" bson:"_id"`
	Name string    `json:"nombre" bson:"nombre"`
}

type ChannelStore interface {
	List(ctx context.Context) ([]Channel, error)
}

type Carrier struct {
	ID        uuid.UUID `json:"id" bson:"_id"`
	Name      string    `json:"nombre" bson:"nombre"`
	Active    bool      `json:"activo" bson:"activo"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (c *Carrier) GetID() uuid.UUID {
	return c.ID
}

func (c *Carrier) ResourceType() string {
	return "transportadora"
}

type CarrierStore interface {
	ListActive(ctx context.Context) ([]Carrier, error)
	List(ctx context.Context) ([]Carrier, error)
	Create(ctx context.Context, name string) (Carrier, error)
}
