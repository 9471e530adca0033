package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("orders"),
	}
}

func (m *MongoRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var doc orderDocument

	err := m.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return doc.toDomain()
}

func (m *MongoRepository) SaveOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	doc, err := toOrderDocument(order)
	if err != nil {
		return nil, err
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	return doc.toDomain()
}

func (m *MongoRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// SaveOrders upserts the batch with a single ordered bulk write. Documents
// are converted before anything is sent, so a conversion error writes
// nothing.
func (m *MongoRepository) SaveOrders(ctx context.Context, orders []*domain.Order) ([]*domain.Order, error) {
	if len(orders) == 0 {
		return []*domain.Order{}, nil
	}

	docs := make([]*orderDocument, 0, len(orders))
	models := make([]mongo.WriteModel, 0, len(orders))
	for _, order := range orders {
		doc, err := toOrderDocument(order)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	if _, err := m.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return nil, fmt.Errorf("failed to save orders: %w", err)
	}

	saved := make([]*domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		saved = append(saved, order)
	}
	return saved, nil
}

func (m *MongoRepository) DeleteOrdersCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := m.collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired orders: %w", err)
	}
	return result.DeletedCount, nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func (m *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.collection.Database().Client().Disconnect(ctx)
}
