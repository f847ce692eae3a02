package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/colibriadf/colibri/internal/order"
)

type ChannelRepo struct {
	collection *mongo.Collection
}

func NewChannelRepo(db *mongo.Database) *ChannelRepo {
	return &ChannelRepo{
		collection: db.Collection("canales_venta"),
	}
}

func (r *ChannelRepo) List(ctx context.Context) ([]order.Channel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "nombre", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list channels: %w", err)
	}
	defer cursor.Close(ctx)

	var result []order.Channel
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode channels: %w", err)
	}

	return result, nil
}
