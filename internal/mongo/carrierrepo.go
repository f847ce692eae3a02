package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/colibriadf/colibri/internal/order"
)

type CarrierRepo struct {
	collection *mongo.Collection
}

func NewCarrierRepo(db *mongo.Database) *CarrierRepo {
	return &CarrierRepo{
		collection: db.Collection("transportadoras"),
	}
}

func (r *CarrierRepo) ListActive(ctx context.Context) ([]order.Carrier, error) {
	return r.list(ctx, bson.M{"activo": true})
}

func (r *CarrierRepo) List(ctx context.Context) ([]order.Carrier, error) {
	return r.list(ctx, bson.M{})
}

func (r *CarrierRepo) list(ctx context.Context, filter bson.M) ([]order.Carrier, error) {
	opts := options.Find().SetSort(bson.D{{Key: "nombre", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list carriers: %w", err)
	}
	defer cursor.Close(ctx)

	var result []order.Carrier
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode carriers: %w", err)
	}

	return result, nil
}

func (r *CarrierRepo) Create(ctx context.Context, name string) (order.Carrier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return order.Carrier{}, fmt.Errorf("carrier name is empty")
	}

	now := time.Now()
	carrier := order.Carrier{
		ID:        apt.GenerateNewID(),
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.collection.InsertOne(ctx, carrier); err != nil {
		return order.Carrier{}, fmt.Errorf("cannot create carrier: %w", err)
	}

	return carrier, nil
}
