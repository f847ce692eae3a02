package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/colibriadf/colibri/internal/order"
)

// OrderStore backs the order domain with four collections: ordenes (headers),
// orden_items, orden_clientes and orden_logs (audit trail). Writes follow the
// same step order as the backing stored procedures: header first, client,
// items, then the log entry.
type OrderStore struct {
	orders  *mongo.Collection
	items   *mongo.Collection
	clients *mongo.Collection
	logs    *mongo.Collection
	logger  apt.Logger
}

func NewOrderStore(db *mongo.Database, logger apt.Logger) *OrderStore {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderStore{
		orders:  db.Collection("ordenes"),
		items:   db.Collection("orden_items"),
		clients: db.Collection("orden_clientes"),
		logs:    db.Collection("orden_logs"),
		logger:  logger,
	}
}

type orderDoc struct {
	ID          uuid.UUID  `bson:"_id"`
	Code        string     `bson:"codigo_orden"`
	ChannelID   uuid.UUID  `bson:"canal_id"`
	State       string     `bson:"estado"`
	GuideNumber string     `bson:"guia_numero,omitempty"`
	CarrierID   uuid.UUID  `bson:"transportadora_id,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
	DeletedAt   *time.Time `bson:"deleted_at,omitempty"`
}

type itemDoc struct {
	ID       uuid.UUID `bson:"_id"`
	OrderID  uuid.UUID `bson:"orden_id"`
	SKU      string    `bson:"sku"`
	Product  string    `bson:"producto"`
	Quantity int       `bson:"cantidad"`
	Price    float64   `bson:"precio"`
	Freight  float64   `bson:"flete"`
	Position int       `bson:"posicion"`
}

type clientDoc struct {
	OrderID uuid.UUID        `bson:"_id"`
	Client  order.ClientInfo `bson:"cliente"`
}

type logDoc struct {
	ID        uuid.UUID `bson:"_id"`
	OrderID   uuid.UUID `bson:"orden_id"`
	Action    string    `bson:"accion"`
	User      string    `bson:"usuario,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// flatDoc is one row out of the FetchAll aggregation: order header joined with
// its client and carrier, unwound per item.
type flatDoc struct {
	ID          uuid.UUID        `bson:"_id"`
	Code        string           `bson:"codigo_orden"`
	ChannelID   uuid.UUID        `bson:"canal_id"`
	State       string           `bson:"estado"`
	GuideNumber string           `bson:"guia_numero,omitempty"`
	CarrierID   uuid.UUID        `bson:"transportadora_id,omitempty"`
	CreatedAt   time.Time        `bson:"created_at"`
	UpdatedAt   time.Time        `bson:"updated_at"`
	DeletedAt   *time.Time       `bson:"deleted_at,omitempty"`
	Client      order.ClientInfo `bson:"cliente,omitempty"`
	Carrier     string           `bson:"transportadora,omitempty"`
	Item        *itemDoc         `bson:"item,omitempty"`
}

func (s *OrderStore) FetchAll(ctx context.Context) ([]order.FlatRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         "orden_clientes",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "cliente_doc",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "transportadoras",
			"localField":   "transportadora_id",
			"foreignField": "_id",
			"as":           "transportadora_doc",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "orden_items",
			"localField":   "_id",
			"foreignField": "orden_id",
			"as":           "item",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$item",
			"preserveNullAndEmptyArrays": true,
		}}},
		{{Key: "$addFields", Value: bson.M{
			"cliente":        bson.M{"$first": "$cliente_doc.cliente"},
			"transportadora": bson.M{"$first": "$transportadora_doc.nombre"},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "created_at", Value: -1},
			{Key: "item.posicion", Value: 1},
		}}},
	}

	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []flatDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	rows := make([]order.FlatRow, 0, len(docs))
	for _, d := range docs {
		row := order.FlatRow{
			ID:          d.ID,
			Code:        d.Code,
			ChannelID:   d.ChannelID,
			State:       d.State,
			Client:      d.Client,
			GuideNumber: d.GuideNumber,
			Carrier:     d.Carrier,
			CarrierID:   d.CarrierID,
			CreatedAt:   d.CreatedAt,
			UpdatedAt:   d.UpdatedAt,
			DeletedAt:   d.DeletedAt,
		}
		if d.Item != nil {
			row.ItemID = d.Item.ID
			row.SKU = d.Item.SKU
			row.Product = d.Item.Product
			row.Quantity = d.Item.Quantity
			row.Price = d.Item.Price
			row.Freight = d.Item.Freight
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *OrderStore) Create(ctx context.Context, p order.CreateParams) (order.CreateResult, error) {
	count, err := s.orders.CountDocuments(ctx, bson.M{
		"canal_id":     p.ChannelID,
		"codigo_orden": p.Code,
	})
	if err != nil {
		return order.CreateResult{}, fmt.Errorf("cannot check order code: %w", err)
	}
	if count > 0 {
		return order.CreateResult{}, order.ErrDuplicateCode
	}

	now := time.Now()
	doc := orderDoc{
		ID:          apt.GenerateNewID(),
		Code:        p.Code,
		ChannelID:   p.ChannelID,
		State:       order.StateNew,
		GuideNumber: p.GuideNumber,
		CarrierID:   p.CarrierID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.orders.InsertOne(ctx, doc); err != nil {
		return order.CreateResult{}, fmt.Errorf("cannot create order: %w", err)
	}

	if p.Client.Name != "" {
		if _, err := s.clients.InsertOne(ctx, clientDoc{OrderID: doc.ID, Client: p.Client}); err != nil {
			return order.CreateResult{}, fmt.Errorf("cannot create order client: %w", err)
		}
	}

	itemIDs, err := s.insertItems(ctx, doc.ID, p.Items)
	if err != nil {
		return order.CreateResult{}, err
	}

	if err := s.appendLog(ctx, doc.ID, "crear", p.User); err != nil {
		return order.CreateResult{}, err
	}

	return order.CreateResult{OrderID: doc.ID, ItemIDs: itemIDs}, nil
}

func (s *OrderStore) Update(ctx context.Context, p order.UpdateParams) error {
	if p.State == order.StateDeleted {
		return fmt.Errorf("estado %q can only be set through delete", order.StateDeleted)
	}

	count, err := s.orders.CountDocuments(ctx, bson.M{"_id": p.OrderID})
	if err != nil {
		return fmt.Errorf("cannot check order: %w", err)
	}
	if count == 0 {
		return order.ErrNotFound
	}

	dup, err := s.orders.CountDocuments(ctx, bson.M{
		"canal_id":     p.ChannelID,
		"codigo_orden": p.Code,
		"_id":          bson.M{"$ne": p.OrderID},
	})
	if err != nil {
		return fmt.Errorf("cannot check order code: %w", err)
	}
	if dup > 0 {
		return order.ErrDuplicateCode
	}

	update := bson.M{
		"$set": bson.M{
			"codigo_orden":      p.Code,
			"canal_id":          p.ChannelID,
			"estado":            p.State,
			"guia_numero":       p.GuideNumber,
			"transportadora_id": p.CarrierID,
			"updated_at":        time.Now(),
		},
		"$unset": bson.M{"deleted_at": ""},
	}
	if _, err := s.orders.UpdateOne(ctx, bson.M{"_id": p.OrderID}, update); err != nil {
		return fmt.Errorf("cannot update order: %w", err)
	}

	clientFilter := bson.M{"_id": p.OrderID}
	if p.Client.Name == "" {
		if _, err := s.clients.DeleteOne(ctx, clientFilter); err != nil {
			return fmt.Errorf("cannot remove order client: %w", err)
		}
	} else {
		replacement := clientDoc{OrderID: p.OrderID, Client: p.Client}
		opts := options.Replace().SetUpsert(true)
		if _, err := s.clients.ReplaceOne(ctx, clientFilter, replacement, opts); err != nil {
			return fmt.Errorf("cannot update order client: %w", err)
		}
	}

	if _, err := s.items.DeleteMany(ctx, bson.M{"orden_id": p.OrderID}); err != nil {
		return fmt.Errorf("cannot replace order items: %w", err)
	}
	if _, err := s.insertItems(ctx, p.OrderID, p.Items); err != nil {
		return err
	}

	return s.appendLog(ctx, p.OrderID, "actualizar", p.User)
}

func (s *OrderStore) SoftDelete(ctx context.Context, orderID uuid.UUID, user string) error {
	now := time.Now()
	result, err := s.orders.UpdateOne(ctx, bson.M{"_id": orderID}, bson.M{
		"$set": bson.M{
			"estado":     order.StateDeleted,
			"deleted_at": now,
			"updated_at": now,
		},
	})
	if err != nil {
		return fmt.Errorf("cannot delete order: %w", err)
	}
	if result.MatchedCount == 0 {
		return order.ErrNotFound
	}
	return s.appendLog(ctx, orderID, "eliminar", user)
}

func (s *OrderStore) Restore(ctx context.Context, orderID uuid.UUID, user string) error {
	result, err := s.orders.UpdateOne(ctx,
		bson.M{"_id": orderID, "estado": order.StateDeleted},
		bson.M{
			"$set":   bson.M{"estado": order.StateRestored, "updated_at": time.Now()},
			"$unset": bson.M{"deleted_at": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("cannot restore order: %w", err)
	}
	if result.MatchedCount == 0 {
		return order.ErrNotFound
	}
	return s.appendLog(ctx, orderID, "restaurar", user)
}

func (s *OrderStore) DeleteItem(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error) {
	var it itemDoc
	err := s.items.FindOne(ctx, bson.M{"_id": itemID}).Decode(&it)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return uuid.Nil, order.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("cannot get item: %w", err)
	}

	result, err := s.items.DeleteOne(ctx, bson.M{"_id": itemID})
	if err != nil {
		return uuid.Nil, fmt.Errorf("cannot delete item: %w", err)
	}
	if result.DeletedCount == 0 {
		return uuid.Nil, order.ErrNotFound
	}
	return it.OrderID, nil
}

func (s *OrderStore) HardDelete(ctx context.Context, orderID uuid.UUID) error {
	if _, err := s.items.DeleteMany(ctx, bson.M{"orden_id": orderID}); err != nil {
		return fmt.Errorf("cannot delete order items: %w", err)
	}
	if _, err := s.clients.DeleteOne(ctx, bson.M{"_id": orderID}); err != nil {
		return fmt.Errorf("cannot delete order client: %w", err)
	}
	if _, err := s.logs.DeleteMany(ctx, bson.M{"orden_id": orderID}); err != nil {
		return fmt.Errorf("cannot delete order logs: %w", err)
	}

	result, err := s.orders.DeleteOne(ctx, bson.M{"_id": orderID})
	if err != nil {
		return fmt.Errorf("cannot delete order: %w", err)
	}
	if result.DeletedCount == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (s *OrderStore) ListCodes(ctx context.Context) ([]string, error) {
	values, err := s.orders.Distinct(ctx, "codigo_orden", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list order codes: %w", err)
	}

	codes := make([]string, 0, len(values))
	for _, v := range values {
		if code, ok := v.(string); ok {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func (s *OrderStore) insertItems(ctx context.Context, orderID uuid.UUID, items []order.LineItem) ([]uuid.UUID, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	docs := make([]interface{}, 0, len(items))
	for i, it := range items {
		id := it.ID
		if id == uuid.Nil {
			id = apt.GenerateNewID()
		}
		ids = append(ids, id)
		docs = append(docs, itemDoc{
			ID:       id,
			OrderID:  orderID,
			SKU:      it.SKU,
			Product:  it.Product,
			Quantity: it.Quantity,
			Price:    it.Price,
			Freight:  it.Freight,
			Position: i,
		})
	}

	if _, err := s.items.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("cannot insert order items: %w", err)
	}
	return ids, nil
}

func (s *OrderStore) appendLog(ctx context.Context, orderID uuid.UUID, action, user string) error {
	entry := logDoc{
		ID:        apt.GenerateNewID(),
		OrderID:   orderID,
		Action:    action,
		User:      user,
		CreatedAt: time.Now(),
	}
	if _, err := s.logs.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("cannot append order log: %w", err)
	}
	return nil
}
